package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"blink-pin/internal/config"
	"blink-pin/internal/factory"
	"blink-pin/internal/model"
	"blink-pin/internal/util"
)

const version = "0.3.0"

// Command represents a CLI command.
type Command struct {
	Name        string
	Description string
	Usage       string
	Run         func(args []string) error
}

var (
	fac          *factory.Factory
	commands     map[string]*Command
	commandOrder = []string{"register", "verify", "list", "remove", "config", "health", "version", "help"}

	landmarkFile string
)

func init() {
	commands = map[string]*Command{
		"register": {
			Name:        "register",
			Description: "Capture a blink PIN and store it for a user",
			Usage:       "blinkpin register [username]",
			Run:         cmdRegister,
		},
		"verify": {
			Name:        "verify",
			Description: "Capture a blink PIN and check it against the stored one",
			Usage:       "blinkpin verify [username]",
			Run:         cmdVerify,
		},
		"list": {
			Name:        "list",
			Description: "List registered users",
			Usage:       "blinkpin list",
			Run:         cmdList,
		},
		"remove": {
			Name:        "remove",
			Description: "Remove a user's stored PIN",
			Usage:       "blinkpin remove <username>",
			Run:         cmdRemove,
		},
		"config": {
			Name:        "config",
			Description: "Show current configuration",
			Usage:       "blinkpin config",
			Run:         cmdConfig,
		},
		"health": {
			Name:        "health",
			Description: "Check the credential store, Redis and Kafka",
			Usage:       "blinkpin health",
			Run:         cmdHealth,
		},
		"version": {
			Name:        "version",
			Description: "Show version information",
			Usage:       "blinkpin version",
			Run:         cmdVersion,
		},
		"help": {
			Name:        "help",
			Description: "Show help information",
			Usage:       "blinkpin help [command]",
			Run:         cmdHelp,
		},
	}
}

func main() {
	envFile := flag.String("env", "", "Path to a .env file (default .env)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.StringVar(&landmarkFile, "landmarks", "", "Landmark recording to replay (overrides LANDMARK_FILE)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(0)
	}

	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmdName)
		printUsage()
		os.Exit(1)
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.LoadConfig(envFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.Logging.Level = "debug"
	}

	fac, err = factory.NewFactory(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = cmd.Run(args[1:])
	fac.Close()
	os.Exit(exitCode(cmdName, err))
}

// exitCode prints the outcome of a failed command and maps it to a status.
// An abandoned capture is not an error.
func exitCode(cmdName string, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, model.ErrIncompleteSequence):
		fmt.Println("Capture ended before the PIN was complete. Nothing saved.")
		return 0
	case errors.Is(err, model.ErrDeviceUnavailable):
		fmt.Fprintln(os.Stderr, "Error: landmark source unavailable.")
	case errors.Is(err, errAuthFailed),
		cmdName == "verify" && errors.Is(err, model.ErrUnknownUser):
		fmt.Fprintln(os.Stderr, "Authentication failed.")
	case errors.Is(err, model.ErrTooManyAttempts):
		fmt.Fprintf(os.Stderr, "Too many failed attempts: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	util.Debug("Command failed", util.String("command", cmdName), util.ErrorField(err))
	return 1
}

func printUsage() {
	fmt.Println("blinkpin - PIN entry by eye blinks")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Usage: blinkpin [options] <command> [arguments]")
	fmt.Println("\nOptions:")
	fmt.Println("  -env <file>        Path to a .env file")
	fmt.Println("  -debug             Enable debug logging")
	fmt.Println("  -landmarks <file>  Landmark recording to replay")
	fmt.Println("\nCommands:")
	for _, name := range commandOrder {
		cmd := commands[name]
		fmt.Printf("  %-10s %s\n", cmd.Name, cmd.Description)
	}
	fmt.Println("\nDuring capture type 'r' + Enter to restart the sequence, 'q' + Enter to quit.")
	fmt.Println("A blink shorter than the duration threshold is 0, a longer one is 1.")
	fmt.Println("\nRun 'blinkpin help <command>' for more information on a command.")
}
