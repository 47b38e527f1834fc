// divvyd is a minimal command-line shell around the divvy client core, used for development
// and debugging against the hosted API.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/divvyapp/divvy"
	"github.com/divvyapp/divvy/events"
	"github.com/divvyapp/divvy/session"
)

var (
	dataPath = flag.String("data-path", "", "folder to store local data in")
	logPath  = flag.String("log-path", "", "folder to store logs in")
	logLevel = flag.String("log-level", "info", "log level (trace, debug, info, warn, error, fatal)")
	baseURL  = flag.String("base-url", "", "override the API endpoint")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] <run|login|logout|whoami|expenses|export>\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	events.Subscribe(func(evt divvy.NavigationEvent) {
		slog.Debug("navigation requested", "location", evt.Location)
	})

	client, err := divvy.NewClient(divvy.Options{
		DataDir:  *dataPath,
		LogDir:   *logPath,
		LogLevel: *logLevel,
		BaseURL:  *baseURL,
	})
	if err != nil {
		slog.Error("failed to start client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx := context.Background()
	switch cmd := flag.Arg(0); cmd {
	case "run":
		err = run(client)
	case "login":
		err = login(ctx, client)
	case "logout":
		client.Logout(ctx)
	case "whoami":
		err = whoami(client)
	case "expenses":
		err = listExpenses(ctx, client)
	case "export":
		err = client.Expenses().ExportCSV(ctx, os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
	}
	if err != nil {
		slog.Error("command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

// run keeps the client resident so the background renewal loop stays alive, for soak testing
// the session lifecycle against the real backend.
func run(client *divvy.Client) error {
	if !client.IsAuthenticated() {
		return fmt.Errorf("not signed in, run login first")
	}
	unsubscribe := client.Session().Store().Subscribe(func(s session.State) {
		slog.Info("session state changed", "authenticated", s.IsAuthenticated(), "loading", s.Loading)
	})
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	slog.Info("running until interrupted", "user", client.CurrentUser().Email)
	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

func login(ctx context.Context, client *divvy.Client) error {
	reader := bufio.NewReader(os.Stdin)

	email := client.RememberedEmail()
	prompt := "email: "
	if email != "" {
		prompt = fmt.Sprintf("email [%s]: ", email)
	}
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading email: %w", err)
	}
	if line = strings.TrimSpace(line); line != "" {
		email = line
	}

	fmt.Print("password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	res := client.Login(ctx, email, string(pw), true, "")
	for res.RequiresMFA {
		fmt.Print("verification code: ")
		code, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading verification code: %w", err)
		}
		res = client.Login(ctx, email, string(pw), true, strings.TrimSpace(code))
	}
	if !res.Success {
		return fmt.Errorf("login failed: %s", res.Message)
	}
	fmt.Printf("signed in as %s\n", client.CurrentUser().Email)
	return nil
}

func whoami(client *divvy.Client) error {
	user := client.CurrentUser()
	if user == nil {
		return fmt.Errorf("not signed in")
	}
	fmt.Printf("%s <%s>\n", user.Name, user.Email)
	return nil
}

func listExpenses(ctx context.Context, client *divvy.Client) error {
	expenses, err := client.Expenses().Expenses(ctx)
	if err != nil {
		return err
	}
	for _, e := range expenses {
		fmt.Printf("%s  %8.2f %s  %-12s %s\n",
			e.Date.Format("2006-01-02"), float64(e.AmountCents)/100, e.Currency, e.Category, e.Description)
	}
	return nil
}
