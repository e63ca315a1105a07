// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/pyboot/pyboot/cmd/pyboot"

func main() {
	cmd.Execute()
}
