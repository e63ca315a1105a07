// SPDX-License-Identifier: MPL-2.0

// Package requirements installs a pip requirements file into a virtual
// environment.
//
// Packages named in the accelerated list (torch by default) are installed
// first from a CPU-only package index, so pip never resolves the GPU-enabled
// builds from the default index; the whole file is installed afterwards,
// finding those packages already satisfied.
package requirements
