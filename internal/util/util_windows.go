//go:build windows

package util

import (
	"log/slog"
	"os"
	"slices"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procGetConsoleWindow = kernel32.NewProc("GetConsoleWindow")
)

// IsRunFromGUI reports whether the process was started from Explorer
// rather than a shell, in which case its console closes on exit.
func IsRunFromGUI() bool {
	hwnd, _, _ := procGetConsoleWindow.Call()
	hasConsole := hwnd != 0

	parentName := getParentProcessName()
	isCliParent := isCliProcess(parentName)

	slog.Debug("parent process", "name", parentName, "console", hasConsole, "shell", isCliParent)

	if !hasConsole {
		return true
	}

	if isCliParent {
		return false
	}

	return strings.EqualFold(parentName, "explorer.exe")
}

func getParentProcessName() string {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(snapshot)

	var pe windows.ProcessEntry32
	pe.Size = uint32(unsafe.Sizeof(pe))

	currentPID := uint32(os.Getpid())
	var parentPID uint32

	if err := windows.Process32First(snapshot, &pe); err != nil {
		return ""
	}

	for {
		if pe.ProcessID == currentPID {
			parentPID = pe.ParentProcessID
			break
		}
		if err := windows.Process32Next(snapshot, &pe); err != nil {
			return ""
		}
	}

	if parentPID == 0 {
		return ""
	}

	if err := windows.Process32First(snapshot, &pe); err != nil {
		return ""
	}

	for {
		if pe.ProcessID == parentPID {
			return windows.UTF16ToString(pe.ExeFile[:])
		}
		if err := windows.Process32Next(snapshot, &pe); err != nil {
			break
		}
	}

	return ""
}

var shells = []string{
	"cmd.exe",
	"powershell.exe",
	"pwsh.exe",
	"wt.exe",
	"conhost.exe",
	"windowsterminal.exe",
	"bash.exe",
}

func isCliProcess(name string) bool {
	return slices.Contains(shells, strings.ToLower(name))
}
