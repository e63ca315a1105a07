// SPDX-License-Identifier: MPL-2.0

package issue

import "github.com/charmbracelet/glamour"

type Id int

const (
	InterpreterNotFoundId Id = iota + 1
	VersionTooLowId
	VenvCreationFailedId
	RequirementsNotFoundId
	InstallFailedId
	EntryPointNotFoundId
	LaunchFailedId
	ConfigLoadFailedId
)

// Glamour style names accepted by Render.
const (
	StyleDark  = "dark"
	StyleNoTTY = "notty"
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

// Render renders the issue Markdown with the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.extLinks {
			extraMd += "- " + string(link) + "\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	interpreterNotFoundIssue = &Issue{
		id: InterpreterNotFoundId,
		mdMsg: `
# No Python interpreter found!

None of the configured interpreter candidates could be found on your PATH.

## Things you can try:
- Install Python 3 with your system package manager
- Point pyboot at a specific interpreter:
~~~
$ PYBOOT_PYTHON=/opt/python3.12/bin/python3 pyboot
~~~
- Add the interpreter's directory to PATH`,
		extLinks: []HttpLink{"https://www.python.org/downloads/"},
	}

	versionTooLowIssue = &Issue{
		id: VersionTooLowId,
		mdMsg: `
# Python is too old!

The located interpreter reports a version below the required minimum.

## Things you can try:
- Install a newer Python and make it the first candidate on PATH
- Select it explicitly with 'PYBOOT_PYTHON'
- If the project allows it, lower 'interpreter.min_version' in pyboot.cue`,
	}

	venvCreationFailedIssue = &Issue{
		id: VenvCreationFailedId,
		mdMsg: `
# Could not create the virtual environment!

'python -m venv' did not produce a usable environment directory.

## Things you can try:
- On Debian/Ubuntu install the venv module:
~~~
$ sudo apt install python3-venv
~~~
- Check free disk space and write permissions in the project directory
- Choose another location with 'VENV_DIR'`,
		extLinks: []HttpLink{"https://docs.python.org/3/library/venv.html"},
	}

	requirementsNotFoundIssue = &Issue{
		id: RequirementsNotFoundId,
		mdMsg: `
# Requirements file not found!

Dependencies cannot be installed without a requirements file.

## Things you can try:
- Create one in the project root:
~~~
$ pip freeze > requirements.txt
~~~
- Point pyboot at another file:
~~~
$ REQUIREMENTS=requirements/dev.txt pyboot
~~~`,
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# Dependency installation failed!

pip exited with an error while installing the project requirements.

## Things you can try:
- Read pip's output above for the failing package
- Check network access to PyPI and to the CPU-only index
- Pin conflicting packages to compatible versions
- Re-run once the network is stable; pyboot does not retry automatically`,
		extLinks: []HttpLink{"https://pip.pypa.io/en/stable/topics/dependency-resolution/"},
	}

	entryPointNotFoundIssue = &Issue{
		id: EntryPointNotFoundId,
		mdMsg: `
# Entry point not found!

The program to launch does not exist in the working directory.

## Things you can try:
- Run pyboot from the project root
- Set 'PYBOOT_ENTRY_POINT' or 'entry_point' in pyboot.cue`,
	}

	launchFailedIssue = &Issue{
		id: LaunchFailedId,
		mdMsg: `
# Could not launch the program!

The virtual environment could not be activated or its interpreter could not be started.

## Things you can try:
- Delete the environment directory and run pyboot again to recreate it
- Check that the interpreter inside the environment still exists`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

pyboot could not read or validate its configuration file.

## Things you can try:
- Check the CUE syntax of pyboot.cue
- Print the effective defaults:
~~~
$ pyboot config show
~~~

## Example configuration:
~~~cue
venv_dir:     ".venv"
requirements: "requirements.txt"
interpreter: {
  min_version: "3.10"
}
install: {
  accelerated_packages: ["torch", "torchvision"]
}
~~~`,
	}

	issues = map[Id]*Issue{
		interpreterNotFoundIssue.Id():  interpreterNotFoundIssue,
		versionTooLowIssue.Id():        versionTooLowIssue,
		venvCreationFailedIssue.Id():   venvCreationFailedIssue,
		requirementsNotFoundIssue.Id(): requirementsNotFoundIssue,
		installFailedIssue.Id():        installFailedIssue,
		entryPointNotFoundIssue.Id():   entryPointNotFoundIssue,
		launchFailedIssue.Id():         launchFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
	}
)

func Get(id Id) *Issue {
	return issues[id]
}
