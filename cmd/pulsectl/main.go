// pulsectl is an interactive operator console for pulsemeterd.
//
// It speaks the daemon's line protocol over TCP. Run with arguments for a
// one-shot command ("pulsectl report 0"), or without for an interactive
// prompt with completion.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"

	"github.com/qpulse/pulsemeter/config"
	"github.com/qpulse/pulsemeter/internal/client"
)

var commands = []prompt.Suggest{
	{Text: "status", Description: "counters and rollover position"},
	{Text: "channels", Description: "configured channels"},
	{Text: "report", Description: "bucket report: report [channel]"},
	{Text: "stats", Description: "pulse gap percentiles"},
	{Text: "pulse", Description: "inject pulses: pulse <channel> [count]"},
	{Text: "quit", Description: "close the console"},
}

func main() {
	addr := flag.String("addr", config.DefaultListenAddress, "pulsemeterd control address")
	timeout := flag.Duration("timeout", 3*time.Second, "dial timeout")
	flag.Parse()

	c, err := client.Dial(*addr, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pulsectl: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	// One-shot mode.
	if flag.NArg() > 0 {
		if err := run(c, strings.Join(flag.Args(), " ")); err != nil {
			fmt.Fprintf(os.Stderr, "pulsectl: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("connected to %s, type a command (tab completes)\n", *addr)

	p := prompt.New(
		func(in string) { execute(c, in) },
		complete,
		prompt.OptionPrefix("pulsemeter> "),
		prompt.OptionTitle("pulsectl"),
	)
	p.Run()
}

// execute handles one interactive line.
func execute(c *client.Client, in string) {
	in = strings.TrimSpace(in)
	if in == "" {
		return
	}

	if strings.EqualFold(in, "quit") || strings.EqualFold(in, "exit") {
		c.Do("QUIT")
		c.Close()
		os.Exit(0)
	}

	if err := run(c, in); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

// run sends one command and prints the reply.
func run(c *client.Client, cmd string) error {
	resp, err := c.Do(strings.ToUpper(strings.Fields(cmd)[0]) + rest(cmd))
	if err != nil {
		return err
	}
	if resp.Detail != "" {
		fmt.Println(resp.Detail)
	}
	for _, line := range resp.Body {
		fmt.Println(line)
	}
	return nil
}

// rest returns everything after the first word, preserving arguments as typed.
func rest(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) < 2 {
		return ""
	}
	return " " + strings.Join(fields[1:], " ")
}

func complete(d prompt.Document) []prompt.Suggest {
	// Only complete the command word itself.
	if strings.Contains(strings.TrimLeft(d.TextBeforeCursor(), " "), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
}
