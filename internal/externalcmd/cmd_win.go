//go:build windows

package externalcmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"unsafe"

	"github.com/kballard/go-shellquote"
	"golang.org/x/sys/windows"
)

// taken from
// https://gist.github.com/hallazzang/76f3970bfc949831808bbebc8ca15209
func createProcessGroup() (windows.Handle, error) {
	h, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return 0, err
	}

	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}
	_, err = windows.SetInformationJobObject(
		h,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)))
	if err != nil {
		return 0, err
	}

	return h, nil
}

func addProcessToGroup(h windows.Handle, p *os.Process) error {
	processHandle, err := windows.OpenProcess(
		uint32(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE), false, uint32(p.Pid))
	if err != nil {
		return fmt.Errorf("failed to open process: %w", err)
	}
	defer windows.CloseHandle(processHandle) //nolint:errcheck

	return windows.AssignProcessToJobObject(h, processHandle)
}

func (e *Cmd) runOSSpecific(env []string) error {
	var cmd *exec.Cmd

	// cmd.exe has its own unquoting rules, therefore the command line is passed as is.
	if strings.HasPrefix(e.cmdstr, "cmd ") || strings.HasPrefix(e.cmdstr, "cmd.exe ") {
		args := strings.TrimPrefix(strings.TrimPrefix(e.cmdstr, "cmd "), "cmd.exe ")

		cmd = exec.Command("cmd.exe")
		cmd.SysProcAttr = &syscall.SysProcAttr{
			CmdLine: args,
		}
	} else {
		cmdParts, err := shellquote.Split(e.cmdstr)
		if err != nil {
			return err
		}
		if len(cmdParts) == 0 {
			return fmt.Errorf("command is empty")
		}

		cmd = exec.Command(cmdParts[0], cmdParts[1:]...)
	}

	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// a job object allows to kill all subprocesses
	g, err := createProcessGroup()
	if err != nil {
		return err
	}
	defer windows.CloseHandle(g) //nolint:errcheck

	err = cmd.Start()
	if err != nil {
		return err
	}

	err = addProcessToGroup(g, cmd.Process)
	if err != nil {
		cmd.Process.Kill() //nolint:errcheck
		return err
	}

	cmdDone := make(chan int)
	go func() {
		cmdDone <- exitCode(cmd.Wait())
	}()

	select {
	case <-e.terminate:
		windows.TerminateJobObject(g, 1) //nolint:errcheck
		<-cmdDone
		return errTerminated

	case c := <-cmdDone:
		if c != 0 {
			return fmt.Errorf("command exited with code %d", c)
		}
		return nil
	}
}
