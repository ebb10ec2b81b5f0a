package startup

import (
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// appID names the launch agent and autostart entries.
const appID = "launchpad-soundpad"

// Enable registers the application to launch at system startup with the
// given config file.
func Enable(configPath string) error {
	args, err := command(configPath)
	if err != nil {
		return err
	}

	switch runtime.GOOS {
	case "darwin":
		return enableMacOS(args)
	case "linux":
		return enableLinux(args)
	case "windows":
		return enableWindows(args)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// Disable removes the application from system startup
func Disable() error {
	switch runtime.GOOS {
	case "darwin":
		return disableMacOS()
	case "linux":
		return disableLinux()
	case "windows":
		return disableWindows()
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// IsEnabled checks if the application is registered for startup
func IsEnabled() bool {
	switch runtime.GOOS {
	case "darwin":
		return isEnabledMacOS()
	case "linux":
		return isEnabledLinux()
	case "windows":
		return isEnabledWindows()
	default:
		return false
	}
}

// command returns the executable and the arguments to start it with.
func command(configPath string) ([]string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return []string{execPath}, nil
	}

	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}
	return []string{execPath, "run", "--config", abs}, nil
}

// --- macOS Implementation ---

const macOSPlistName = "com.mcfloy." + appID + ".plist"

func macOSPlistPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "LaunchAgents", macOSPlistName)
}

func enableMacOS(args []string) error {
	var programArgs strings.Builder
	for _, a := range args {
		fmt.Fprintf(&programArgs, "        <string>%s</string>\n", html.EscapeString(a))
	}

	plistContent := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>com.mcfloy.%s</string>
    <key>ProgramArguments</key>
    <array>
%s    </array>
    <key>RunAtLoad</key>
    <true/>
</dict>
</plist>
`, appID, programArgs.String())

	// Ensure LaunchAgents directory exists
	dir := filepath.Dir(macOSPlistPath())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(macOSPlistPath(), []byte(plistContent), 0644)
}

func disableMacOS() error {
	path := macOSPlistPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Already disabled
	}
	return os.Remove(path)
}

func isEnabledMacOS() bool {
	_, err := os.Stat(macOSPlistPath())
	return err == nil
}

// --- Linux Implementation ---

const linuxDesktopName = appID + ".desktop"

func linuxDesktopPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "autostart", linuxDesktopName)
}

func enableLinux(args []string) error {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = fmt.Sprintf("%q", a)
	}

	desktopContent := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=Launchpad Soundpad
Exec=%s
Hidden=false
NoDisplay=false
X-GNOME-Autostart-enabled=true
`, strings.Join(quoted, " "))

	// Ensure autostart directory exists
	dir := filepath.Dir(linuxDesktopPath())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(linuxDesktopPath(), []byte(desktopContent), 0644)
}

func disableLinux() error {
	path := linuxDesktopPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Already disabled
	}
	return os.Remove(path)
}

func isEnabledLinux() bool {
	_, err := os.Stat(linuxDesktopPath())
	return err == nil
}

// --- Windows Implementation ---

const windowsRegistryKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`
const windowsAppName = "LaunchpadSoundpad"

func enableWindows(args []string) error {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = `"` + a + `"`
	}

	// Use reg.exe to add the registry key
	cmd := exec.Command("reg", "add", windowsRegistryKey,
		"/v", windowsAppName,
		"/t", "REG_SZ",
		"/d", strings.Join(quoted, " "),
		"/f")
	return cmd.Run()
}

func disableWindows() error {
	cmd := exec.Command("reg", "delete", windowsRegistryKey,
		"/v", windowsAppName,
		"/f")
	output, err := cmd.CombinedOutput()
	// Ignore error if the key doesn't exist
	if err != nil && !strings.Contains(string(output), "The system was unable to find the specified registry key or value") {
		return err
	}
	return nil
}

func isEnabledWindows() bool {
	cmd := exec.Command("reg", "query", windowsRegistryKey,
		"/v", windowsAppName)
	err := cmd.Run()
	return err == nil
}
