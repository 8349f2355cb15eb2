package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-client/internal/domain"
	"github.com/dvloznov/finance-client/internal/transport"
	"github.com/dvloznov/finance-client/internal/ui"
)

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("-%s is required", name)
	}
	return nil
}

func runLogin(ctx context.Context, fs *flag.FlagSet, common *commonFlags, args []string) error {
	email := fs.String("email", "", "Email")
	password := fs.String("password", "", "Password")
	fs.Parse(args)
	if err := errors.Join(required("email", *email), required("password", *password)); err != nil {
		return err
	}

	return withEnv(ctx, common, func(e *env) error {
		e.app.Sidebar.OnLogin()
		if err := e.wait(e.app.Login.Submit(e.ctx, transport.Data{"email": *email, "password": *password})); err != nil {
			return err
		}
		if err := e.modalError(ui.ModalLogin); err != nil {
			return err
		}
		return printUser(e)
	})
}

func runRegister(ctx context.Context, fs *flag.FlagSet, common *commonFlags, args []string) error {
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email")
	password := fs.String("password", "", "Password")
	fs.Parse(args)
	if err := errors.Join(required("email", *email), required("password", *password)); err != nil {
		return err
	}

	return withEnv(ctx, common, func(e *env) error {
		e.app.Sidebar.OnRegister()
		data := transport.Data{"name": *name, "email": *email, "password": *password}
		if err := e.wait(e.app.Register.Submit(e.ctx, data)); err != nil {
			return err
		}
		if err := e.modalError(ui.ModalRegister); err != nil {
			return err
		}
		return printUser(e)
	})
}

func runLogout(ctx context.Context, fs *flag.FlagSet, common *commonFlags, args []string) error {
	fs.Parse(args)
	return withEnv(ctx, common, func(e *env) error {
		if err := e.wait(e.app.Sidebar.Logout(e.ctx)); err != nil {
			return err
		}
		if e.app.State() == ui.StateInit && !e.term.alerted() {
			fmt.Fprintln(e.out, "Logged out.")
		}
		return nil
	})
}

func runForget(ctx context.Context, fs *flag.FlagSet, common *commonFlags, args []string) error {
	fs.Parse(args)
	return withEnv(ctx, common, func(e *env) error {
		e.app.Forget()
		e.keepCookies = false
		_, err := fmt.Fprintln(e.out, "Local session removed.")
		return err
	})
}

func runWhoami(ctx context.Context, fs *flag.FlagSet, common *commonFlags, args []string) error {
	fs.Parse(args)
	return withEnv(ctx, common, func(e *env) error {
		if err := e.start(); err != nil {
			return err
		}
		return printUser(e)
	})
}

func printUser(e *env) error {
	if e.app.State() != ui.StateUserLogged {
		_, err := fmt.Fprintln(e.out, "Not logged in.")
		return err
	}
	user, ok := e.app.CurrentUser()
	if !ok {
		_, err := fmt.Fprintln(e.out, "Not logged in.")
		return err
	}
	_, err := fmt.Fprintf(e.out, "%s <%s> (id %s)\n", user.Name, user.Email, user.ID)
	return err
}

func runAccounts(ctx context.Context, fs *flag.FlagSet, common *commonFlags, args []string) error {
	fs.Parse(args)
	return withEnv(ctx, common, func(e *env) error {
		if err := e.start(); err != nil {
			return err
		}
		if err := e.requireUser(); err != nil {
			return err
		}
		return e.printAccounts()
	})
}

// openAccount starts the app and shows the transactions of account.
func openAccount(e *env, account string) error {
	if err := e.start(); err != nil {
		return err
	}
	if err := e.requireUser(); err != nil {
		return err
	}
	if !e.app.Accounts.Select(domain.ID(account)) {
		return fmt.Errorf("no account with id %s", account)
	}
	return e.wait()
}

func runTransactions(ctx context.Context, fs *flag.FlagSet, common *commonFlags, args []string) error {
	account := fs.String("account", "", "Account id")
	fs.Parse(args)
	if err := required("account", *account); err != nil {
		return err
	}

	return withEnv(ctx, common, func(e *env) error {
		if err := openAccount(e, *account); err != nil {
			return err
		}
		return e.printTransactions()
	})
}

func runCreateAccount(ctx context.Context, fs *flag.FlagSet, common *commonFlags, args []string) error {
	name := fs.String("name", "", "Account name")
	fs.Parse(args)
	if err := required("name", *name); err != nil {
		return err
	}

	return withEnv(ctx, common, func(e *env) error {
		if err := e.start(); err != nil {
			return err
		}
		if err := e.requireUser(); err != nil {
			return err
		}
		e.app.Accounts.OnCreateAccount()
		if err := e.wait(e.app.CreateAccount.Submit(e.ctx, transport.Data{"name": *name})); err != nil {
			return err
		}
		if err := e.modalError(ui.ModalCreateAccount); err != nil {
			return err
		}
		return e.printAccounts()
	})
}

func runCreateTransaction(ctx context.Context, fs *flag.FlagSet, common *commonFlags, args []string) error {
	account := fs.String("account", "", "Account id")
	kind := fs.String("type", "expense", "income or expense")
	name := fs.String("name", "", "Description")
	sum := fs.String("sum", "", "Amount, e.g. 120.50")
	fs.Parse(args)
	if err := errors.Join(required("account", *account), required("name", *name), required("sum", *sum)); err != nil {
		return err
	}
	txType := domain.TransactionType(strings.ToUpper(*kind))
	if !txType.Valid() {
		return fmt.Errorf("-type must be income or expense, got %q", *kind)
	}

	return withEnv(ctx, common, func(e *env) error {
		if err := openAccount(e, *account); err != nil {
			return err
		}
		form := e.app.Expense
		if txType == domain.TransactionIncome {
			form = e.app.Income
		}
		_, modal := form.Names()
		e.app.OpenModal(modal)

		data := transport.Data{"account_id": *account, "name": *name, "sum": *sum}
		if err := e.wait(form.Submit(e.ctx, data)); err != nil {
			return err
		}
		if err := e.modalError(modal); err != nil {
			return err
		}
		return e.printTransactions()
	})
}

func runRemoveTransaction(ctx context.Context, fs *flag.FlagSet, common *commonFlags, args []string) error {
	account := fs.String("account", "", "Account id")
	id := fs.String("id", "", "Transaction id")
	fs.Parse(args)
	if err := errors.Join(required("account", *account), required("id", *id)); err != nil {
		return err
	}

	return withEnv(ctx, common, func(e *env) error {
		if err := openAccount(e, *account); err != nil {
			return err
		}
		h := e.app.Page.RemoveTransaction(e.ctx, domain.ID(*id))
		if h == nil {
			fmt.Fprintln(e.out, "Cancelled.")
			return nil
		}
		if err := e.wait(h); err != nil {
			return err
		}
		return e.printTransactions()
	})
}

func runRemoveAccount(ctx context.Context, fs *flag.FlagSet, common *commonFlags, args []string) error {
	account := fs.String("account", "", "Account id")
	fs.Parse(args)
	if err := required("account", *account); err != nil {
		return err
	}

	return withEnv(ctx, common, func(e *env) error {
		if err := openAccount(e, *account); err != nil {
			return err
		}
		h := e.app.Page.RemoveAccount(e.ctx)
		if h == nil {
			fmt.Fprintln(e.out, "Cancelled.")
			return nil
		}
		if err := e.wait(h); err != nil {
			return err
		}
		return e.printAccounts()
	})
}
