package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// runMenu drives the interactive mode-selection loop. Each run returns to
// the menu; errors are reported and the loop continues so one bad run never
// kills the session.
func (a *harvestApp) runMenu(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for a.session.BaseURL() == "" {
		fmt.Fprint(out, "Enter the base URL of the LiveJournal blog: ")
		line, ok := readLine(scanner)
		if !ok {
			return nil
		}
		if line != "" {
			a.session.SetBaseURL(line)
		}
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(out, "\nTarget blog: %s\n", a.session.BaseURL())
		fmt.Fprintln(out, "Select an option:")
		fmt.Fprintln(out, "1. Save all posts")
		fmt.Fprintln(out, "2. Save a specific number of posts")
		fmt.Fprintln(out, "3. Save one post")
		fmt.Fprintln(out, "4. Change LiveJournal blog URL")
		fmt.Fprintln(out, "5. Exit")
		fmt.Fprint(out, "Enter your choice (1/2/3/4/5): ")

		choice, ok := readLine(scanner)
		if !ok {
			return nil
		}

		var err error
		switch choice {
		case "1":
			err = a.runHarvest(ctx, 0)
		case "2":
			err = a.menuFirstN(ctx, scanner, out)
		case "3":
			err = a.menuOnePost(ctx, scanner, out)
		case "4":
			a.menuChangeURL(scanner, out)
		case "5":
			return nil
		default:
			fmt.Fprintln(out, "Invalid option. Please try again.")
		}
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Fprintf(out, "Run failed: %v\n", err)
		}
	}
}

func (a *harvestApp) menuFirstN(ctx context.Context, scanner *bufio.Scanner, out io.Writer) error {
	for {
		fmt.Fprint(out, "Enter the number of posts to save: ")
		line, ok := readLine(scanner)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n <= 0 {
			fmt.Fprintln(out, "Invalid input. Please enter a positive integer.")
			continue
		}
		return a.runHarvest(ctx, n)
	}
}

func (a *harvestApp) menuOnePost(ctx context.Context, scanner *bufio.Scanner, out io.Writer) error {
	fmt.Fprint(out, "Enter the URL or numeric ID of the post: ")
	line, ok := readLine(scanner)
	if !ok || line == "" {
		return nil
	}
	return a.runOne(ctx, line)
}

func (a *harvestApp) menuChangeURL(scanner *bufio.Scanner, out io.Writer) {
	fmt.Fprint(out, "Enter the new base URL of the LiveJournal blog: ")
	line, ok := readLine(scanner)
	if !ok || line == "" {
		fmt.Fprintln(out, "Invalid input. Please enter a valid URL.")
		return
	}
	a.session.SetBaseURL(line)
	if err := a.session.Save(); err != nil {
		a.logger.Warn("session save failed", zap.Error(err))
	}
}

func readLine(scanner *bufio.Scanner) (string, bool) {
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}
