package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	personaHandler "github.com/zhouzirui/dialogue-sim/backend/internal/handler/persona"
	"github.com/zhouzirui/dialogue-sim/backend/internal/model/chat"
	"github.com/zhouzirui/dialogue-sim/backend/internal/model/persona"
	"github.com/zhouzirui/dialogue-sim/backend/internal/service/ai"
)

const separator = "--------------------------------------------------"

// console is a line-oriented front end over a single conversation.
type console struct {
	personas persona.Store
	ai       *ai.Service
	conv     *chat.Conversation
	renderer *glamour.TermRenderer
	out      io.Writer
}

// newConsole builds a console around a fresh conversation. A nil renderer
// prints answers as raw Markdown.
func newConsole(personas persona.Store, aiSvc *ai.Service, active string, renderer *glamour.TermRenderer, out io.Writer) *console {
	return &console{
		personas: personas,
		ai:       aiSvc,
		conv:     chat.NewConversation(active),
		renderer: renderer,
		out:      out,
	}
}

// run reads commands from in until exit or EOF.
func (c *console) run(ctx context.Context, in io.Reader) error {
	c.printWelcome()
	c.printHelp()
	c.printActive()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			break
		}
		if done := c.handle(ctx, scanner.Text()); done {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

// handle executes one input line and reports whether the loop should stop.
func (c *console) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "exit", "quit":
		fmt.Fprintln(c.out, "Goodbye.")
		return true
	case "help":
		c.printHelp()
	case "list":
		c.printList()
	case "use":
		c.use(arg)
	case "history":
		c.printHistory()
	case "ask":
		c.ask(ctx, arg)
	case "prompt":
		c.prompt(ctx, arg)
	default:
		c.ask(ctx, line)
	}
	return false
}

func (c *console) use(name string) {
	if name == "" {
		fmt.Fprintln(c.out, "usage: use <name>")
		return
	}
	character, ok := c.personas.FindByName(name)
	if !ok {
		fmt.Fprintf(c.out, "Unknown character %q. Type 'list' to see who is available.\n", name)
		return
	}
	c.conv.Select(character.ID)
	c.printActive()
	if n := c.conv.Len(character.ID); n > 0 {
		fmt.Fprintf(c.out, "Resuming %d earlier exchange(s).\n", n)
	}
}

func (c *console) ask(ctx context.Context, question string) {
	character := c.activeCharacter()
	fmt.Fprintf(c.out, "%s is thinking...\n", character.Name)

	turn, err := c.ai.Ask(ctx, c.conv, character.ID, question)
	if err != nil {
		c.printError(err)
		return
	}

	fmt.Fprintln(c.out, separator)
	fmt.Fprintf(c.out, "%s:\n%s\n", character.Name, c.render(turn.Answer))
	fmt.Fprintln(c.out, separator)
}

func (c *console) render(markdown string) string {
	if c.renderer == nil {
		return markdown
	}
	out, err := c.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(out, "\n")
}

func (c *console) prompt(ctx context.Context, question string) {
	text, err := c.ai.Preview(ctx, c.conv, c.conv.Active(), question)
	if err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintln(c.out, separator)
	fmt.Fprintln(c.out, text)
	fmt.Fprintln(c.out, separator)
}

func (c *console) printError(err error) {
	switch {
	case errors.Is(err, ai.ErrEmptyInput):
		fmt.Fprintln(c.out, "Please ask a question first.")
	case errors.Is(err, ai.ErrNotConfigured):
		fmt.Fprintf(c.out, "No generation backend is configured. Set %s and restart.\n", c.ai.MissingCredential())
	case errors.Is(err, ai.ErrProfileNotFound):
		fmt.Fprintf(c.out, "Profile missing: %v\n", err)
	default:
		fmt.Fprintf(c.out, "An error occurred: %v\n", err)
	}
}

func (c *console) printHistory() {
	character := c.activeCharacter()
	turns := c.conv.History(character.ID)
	if len(turns) == 0 {
		fmt.Fprintf(c.out, "No conversation with %s yet.\n", character.Name)
		return
	}
	fmt.Fprintln(c.out, ai.FormatHistory(character.Name, turns))
}

func (c *console) printList() {
	active := c.conv.Active()
	for _, cat := range c.personas.Categories() {
		if cat.Name != "" {
			fmt.Fprintf(c.out, "%s\n", cat.Name)
		}
		for _, member := range cat.Members {
			marker := " "
			if member.ID == active {
				marker = "*"
			}
			fmt.Fprintf(c.out, "  %s %s\n", marker, member.Name)
		}
	}
}

func (c *console) printActive() {
	fmt.Fprintf(c.out, "You are speaking with %s.\n", c.activeCharacter().Name)
}

func (c *console) printWelcome() {
	welcome := personaHandler.DefaultWelcome()
	fmt.Fprintln(c.out, welcome.Title)
	fmt.Fprintln(c.out, welcome.Subtitle)
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, welcome.Intro)
	for i, step := range welcome.Steps {
		fmt.Fprintf(c.out, "%d. %s\n", i+1, step)
	}
	fmt.Fprintln(c.out)
}

func (c *console) printHelp() {
	fmt.Fprintln(c.out, "Commands: list | use <name> | history | ask <question> | prompt <question> | help | exit")
	fmt.Fprintln(c.out, "Any other input is asked to the current character.")
}

func (c *console) activeCharacter() persona.Character {
	if character, ok := c.personas.FindByID(c.conv.Active()); ok {
		return character
	}
	return persona.Character{ID: c.conv.Active(), Name: c.conv.Active()}
}
