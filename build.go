//go:build ignore

// build.go - capboard build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, web, marketcap-report, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

const (
	version = "1.0.0"
	module  = "capboard"
)

var (
	rootDir string
	distDir string

	// key = directory under cmd/, value = output binary name
	executables = map[string]string{
		"web":              "capboard",
		"marketcap-report": "marketcap-report",
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s, run from the module root", rootDir))
	}
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	var err error
	switch *target {
	case "all":
		err = buildAll(*verbose)
	case "web", "marketcap-report":
		err = buildExecutable(*target, *verbose)
	case "test":
		err = runTests(*verbose)
	case "clean":
		err = clean(*verbose)
	default:
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Printf("%s%s build %s (%s/%s)%s\n", colorCyan, module, version, runtime.GOOS, runtime.GOARCH, colorReset)
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorYellow, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[OK]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func buildAll(verbose bool) error {
	if err := runTests(verbose); err != nil {
		return err
	}
	for _, name := range []string{"web", "marketcap-report"} {
		if err := buildExecutable(name, verbose); err != nil {
			return err
		}
	}
	return copyConfig(verbose)
}

func buildExecutable(name string, verbose bool) error {
	output := executables[name]
	if runtime.GOOS == "windows" {
		output += ".exe"
	}
	if err := os.MkdirAll(distDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", distDir, err)
	}

	printInfo(fmt.Sprintf("Building %s", name))
	args := []string{"build", "-trimpath", "-ldflags", "-s -w", "-o", filepath.Join(distDir, output), "./cmd/" + name}
	if verbose {
		args = append(args[:1], append([]string{"-v"}, args[1:]...)...)
	}
	if err := run(verbose, "go", args...); err != nil {
		return fmt.Errorf("failed to build %s: %w", name, err)
	}
	printSuccess(fmt.Sprintf("Built %s", filepath.Join("dist", output)))
	return nil
}

func runTests(verbose bool) error {
	printInfo("Running tests")
	args := []string{"test", "-race", "./..."}
	if verbose {
		args = append(args, "-v")
	}
	if err := run(true, "go", args...); err != nil {
		return fmt.Errorf("tests failed: %w", err)
	}
	return nil
}

// copyConfig places configs/config.yaml next to the binaries when present
func copyConfig(verbose bool) error {
	src := filepath.Join(rootDir, "configs", "config.yaml")
	data, err := os.ReadFile(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if verbose {
		printInfo("Copying " + src)
	}
	return os.WriteFile(filepath.Join(distDir, "config.yaml"), data, 0644)
}

func clean(verbose bool) error {
	printInfo("Cleaning build artifacts")
	for _, dir := range []string{distDir, filepath.Join(rootDir, "logs")} {
		if verbose {
			printInfo("Removing " + dir)
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}
	return nil
}

func run(stream bool, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = rootDir
	if stream {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all               test, then build every executable into dist/")
	fmt.Println("  web               build the dashboard API server")
	fmt.Println("  marketcap-report  build the report command")
	fmt.Println("  test              go test -race ./...")
	fmt.Println("  clean             remove dist/ and logs/")
}
