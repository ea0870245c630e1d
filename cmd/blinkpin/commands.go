package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"blink-pin/internal/capture"
	"blink-pin/internal/util"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errAuthFailed = errors.New("authentication failed")

var stdin = bufio.NewReader(os.Stdin)

func cmdRegister(args []string) error {
	username, err := usernameArg(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := fac.Config().Blink.MaxBlinks
	fmt.Printf("Registering %q: blink %d times.\n", username, target)

	digits, err := captureDigits(ctx, target)
	if err != nil {
		return err
	}

	if err := fac.ServiceFactory().PINService().Register(ctx, username, digits); err != nil {
		return err
	}
	fmt.Printf("PIN saved for %s (%d blinks).\n", username, len(digits))
	return nil
}

func cmdVerify(args []string) error {
	username, err := usernameArg(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := fac.ServiceFactory().PINService()
	target := svc.PINLength(username)
	fmt.Printf("Verifying %q: blink %d times.\n", username, target)

	digits, err := captureDigits(ctx, target)
	if err != nil {
		return err
	}

	ok, err := svc.Authenticate(ctx, username, digits)
	if err != nil {
		return err
	}
	if !ok {
		return errAuthFailed
	}
	fmt.Println("Authentication successful.")
	return nil
}

func cmdList(args []string) error {
	users := fac.ServiceFactory().PINService().Users()
	if len(users) == 0 {
		fmt.Println("No registered users.")
		return nil
	}

	all := fac.Store().All()
	fmt.Printf("%-24s %-8s %s\n", "USERNAME", "LENGTH", "UPDATED")
	for _, name := range users {
		c := all[name]
		fmt.Printf("%-24s %-8d %s\n", name, c.PINLength, c.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func cmdRemove(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s", commands["remove"].Usage)
	}
	if err := fac.ServiceFactory().PINService().Remove(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed %s.\n", args[0])
	return nil
}

func cmdConfig(args []string) error {
	cfg := *fac.Config()
	if cfg.Redis.Password != "" {
		cfg.Redis.Password = "********"
	}
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func cmdHealth(args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	problems := fac.HealthCheck(ctx)
	if len(problems) == 0 {
		fmt.Println("All components healthy.")
		return nil
	}

	names := make([]string, 0, len(problems))
	for name := range problems {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-8s %v\n", name, problems[name])
	}
	return fmt.Errorf("%d component(s) unhealthy", len(problems))
}

func cmdVersion(args []string) error {
	fmt.Printf("blinkpin version %s\n", version)
	return nil
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	fmt.Printf("%s - %s\n\nUsage: %s\n", cmd.Name, cmd.Description, cmd.Usage)
	return nil
}

// usernameArg takes the username from args or prompts for it.
func usernameArg(args []string) (string, error) {
	if len(args) > 0 {
		if name := util.NormalizeUsername(args[0]); name != "" {
			return name, nil
		}
	}
	fmt.Print("Username: ")
	line, err := stdin.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read username: %w", err)
	}
	name := util.NormalizeUsername(line)
	if name == "" {
		return "", fmt.Errorf("username is required")
	}
	return name, nil
}

// captureDigits runs one capture session against the configured landmark
// source while forwarding r/q lines from stdin as controls.
func captureDigits(ctx context.Context, target int) (string, error) {
	src, err := fac.OpenLandmarkSource(ctx, landmarkFile)
	if err != nil {
		return "", err
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	controls := make(chan capture.Control)
	go readControls(ctx, stdin, controls)

	fmt.Println("Short blink = 0, long blink = 1. Type r to restart, q to quit.")
	session := fac.NewCaptureSession(src, capture.Options{
		Target:   target,
		Controls: controls,
		OnProgress: func(p capture.Progress) {
			fmt.Printf("  %s blink (%dms)  %s%s\n",
				p.Symbol, p.Duration.Milliseconds(), p.Digits, strings.Repeat("_", p.Target-len(p.Digits)))
		},
		OnReset: func() {
			fmt.Println("  sequence cleared")
		},
	})
	return session.Run(ctx)
}

// readControls never closes controls; it may stay blocked on stdin after the
// session ends.
func readControls(ctx context.Context, r *bufio.Reader, controls chan<- capture.Control) {
	for {
		line, err := r.ReadString('\n')
		var c capture.Control
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "r":
			c = capture.ControlReset
		case "q":
			c = capture.ControlQuit
		default:
			if err != nil {
				return
			}
			continue
		}
		select {
		case controls <- c:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}
