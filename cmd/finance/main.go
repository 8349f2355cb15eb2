package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/finance-client/internal/logger"
)

// errAlerted is returned when the command ran but the user was shown an error.
var errAlerted = errors.New("command reported errors")

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, fs *flag.FlagSet, common *commonFlags, args []string) error
}

var commands = []command{
	{name: "login", usage: "Log in with -email and -password", run: runLogin},
	{name: "register", usage: "Create a user with -name, -email and -password", run: runRegister},
	{name: "logout", usage: "End the session", run: runLogout},
	{name: "forget", usage: "Drop the local session without contacting the service", run: runForget},
	{name: "whoami", usage: "Show the logged-in user", run: runWhoami},
	{name: "accounts", usage: "List accounts", run: runAccounts},
	{name: "transactions", usage: "List the transactions of -account", run: runTransactions},
	{name: "create-account", usage: "Create an account named -name", run: runCreateAccount},
	{name: "create-transaction", usage: "Record an -type income|expense on -account", run: runCreateTransaction},
	{name: "remove-transaction", usage: "Remove transaction -id from -account", run: runRemoveTransaction},
	{name: "remove-account", usage: "Remove -account and its transactions", run: runRemoveAccount},
}

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		printUsage()
		return
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == os.Args[1] {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	fs := flag.NewFlagSet(cmd.name, flag.ExitOnError)
	var common commonFlags
	fs.StringVar(&common.baseURL, "base-url", "", "Service URL (overrides FINANCE_BASE_URL)")
	fs.BoolVar(&common.yes, "yes", false, "Answer yes to every confirmation")
	fs.BoolVar(&common.html, "html", false, "Print the rendered document as HTML")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.run(ctx, fs, &common, os.Args[2:])
	switch {
	case errors.Is(err, errAlerted):
		os.Exit(1)
	case err != nil:
		log.Fatal().Err(err).Str("command", cmd.name).Msg("Command failed")
	}
}

// withEnv builds the environment, runs fn on it and tears it down.
func withEnv(ctx context.Context, common *commonFlags, fn func(e *env) error) error {
	e, err := setup(ctx, *common)
	if err != nil {
		return err
	}
	err = fn(e)
	e.close()
	if err == nil && e.term.alerted() {
		return errAlerted
	}
	return err
}

func printUsage() {
	fmt.Println("Finance client")
	fmt.Println("\nUsage:")
	fmt.Println("  finance <command> [options]")
	fmt.Println("\nCommands:")
	for _, c := range commands {
		fmt.Printf("  %-20s %s\n", c.name, c.usage)
	}
	fmt.Println("  help                 Show this help message")
	fmt.Println("\nCommon options: -base-url URL, -yes, -html")
	fmt.Println("\nRun 'finance <command> -h' for more information on a command.")
}
