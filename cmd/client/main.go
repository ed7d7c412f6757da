package main

import (
	"bufio"
	"chat-mailbox/client"
	"chat-mailbox/protocol"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
)

type Config struct {
	ServerAddr string `env:"CHAT_SERVER_ADDR,default=127.0.0.1:8080"`
	Colours    bool   `env:"CHAT_COLOURS,default=true"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Client terminated with error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	address := config.ServerAddr
	if len(args) > 0 {
		address = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, address)
	if err != nil {
		return err
	}
	defer c.Close()

	// Server output, until the server closes the connection
	done := make(chan error, 1)
	go func() {
		done <- relay(os.Stdout, c, highlighter(config.Colours))
	}()

	// User input
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := c.Send(scanner.Text()); err != nil {
				return
			}
		}
		_ = c.Close()
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-done:
		return err
	}
}

// relay copies the server stream to out, rewriting notices on the way.
func relay(out io.Writer, in io.Reader, replacer *strings.Replacer) error {
	buf := make([]byte, 4096)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if _, werr := io.WriteString(out, replacer.Replace(string(buf[:n]))); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func highlighter(enabled bool) *strings.Replacer {
	if !enabled {
		return strings.NewReplacer()
	}
	green := color.New(color.FgGreen).Render
	red := color.New(color.FgRed).Render
	yellow := color.New(color.FgYellow).Render

	var pairs []string
	for _, notice := range []string{protocol.LoginSuccessful, protocol.RegistrationSuccessful} {
		pairs = append(pairs, notice, green(notice))
	}
	for _, notice := range []string{protocol.LoginFailed, protocol.UsernameExists, protocol.InternalError} {
		pairs = append(pairs, notice, red(notice))
	}
	for _, notice := range []string{protocol.InvalidChoice, protocol.InvalidRecipient, protocol.InvalidCredentials} {
		pairs = append(pairs, notice, yellow(notice))
	}
	return strings.NewReplacer(pairs...)
}
