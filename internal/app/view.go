package app

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dvloznov/finance-client/internal/ui"
)

// HTML serializes the whole document.
func (a *App) HTML() string {
	return ui.Render(a.doc)
}

// WriteAccounts prints one line per rendered account, the active one
// marked with an asterisk.
func (a *App) WriteAccounts(w io.Writer) error {
	items := ui.Children(a.panel, "account")
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "(no accounts)")
		return err
	}
	for _, item := range items {
		mark := " "
		if ui.HasClass(item, "active") {
			mark = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %-36s %s\n", mark, ui.DataID(item), ui.TextContent(item)); err != nil {
			return err
		}
	}
	return nil
}

// WriteTransactions prints the page title and one line per transaction.
func (a *App) WriteTransactions(w io.Writer) error {
	if _, err := fmt.Fprintln(w, a.Page.Title()); err != nil {
		return err
	}
	for _, row := range ui.Children(a.content, "transaction") {
		sign := "+"
		if ui.HasClass(row, "transaction_expense") {
			sign = "-"
		}
		id := ""
		if btn := findClass(row, "transaction__remove"); btn != nil {
			id = ui.DataID(btn)
		}
		_, err := fmt.Fprintf(w, "  %-36s %-28s %s%s  %s\n",
			id,
			textOfClass(row, "transaction__date"),
			sign,
			strings.TrimSpace(textOfClass(row, "transaction__summ")),
			textOfClass(row, "transaction__title"),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func findClass(n *html.Node, class string) *html.Node {
	return ui.Find(n, func(c *html.Node) bool { return ui.HasClass(c, class) })
}

func textOfClass(n *html.Node, class string) string {
	if c := findClass(n, class); c != nil {
		return ui.TextContent(c)
	}
	return ""
}
