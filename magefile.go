//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

// Build compiles the monitor and the list generator into ./bin
func Build() error {
	mg.Deps(BuildMonitor)
	mg.Deps(BuildListgen)
	fmt.Println("Compilation finished")
	return nil
}

func BuildMonitor() error {
	fmt.Println("Building monitor executable...")
	return run("go", "build", "-o", "./bin/monitor", "./monitor")
}

func BuildListgen() error {
	fmt.Println("Building listgen executable...")
	return run("go", "build", "-o", "./bin/listgen", "./listgen")
}

// Test runs the unit tests of every package
func Test() error {
	fmt.Println("Running tests...")
	return run("go", "test", "./...")
}

// Demo writes a synthetic run and monitors it until interrupted
func Demo() error {
	mg.Deps(Build)
	const listFile = "./bin/run_demo_list.txt"
	generator := exec.Command("./bin/listgen", "-file", listFile, "-triggers", "100000")
	generator.Stdout = os.Stdout
	generator.Stderr = os.Stderr
	if err := generator.Start(); err != nil {
		return err
	}
	defer generator.Process.Kill()
	// The monitor exits if the list file does not exist yet.
	time.Sleep(500 * time.Millisecond)
	return run("./bin/monitor", "-file", listFile)
}

func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Env = os.Environ()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
