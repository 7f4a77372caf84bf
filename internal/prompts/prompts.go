// Package prompts holds the MCP prompt templates that walk an agent through
// common Spark investigations using the server's tools.
package prompts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	ErrUnknownPrompt   = errors.New("unknown prompt")
	ErrMissingArgument = errors.New("missing required argument")
)

type Argument struct {
	Name        string
	Description string
	Required    bool
	Default     string
	// Clause is formatted with the value into {{<name>_clause}}, which is
	// empty when the argument is not set.
	Clause string
	// Guidance maps a value to the sentence exposed as {{<name>_guidance}}.
	// Unknown values fall back to the guidance of Default.
	Guidance map[string]string
}

// Prompt is a text template with {{argument}} placeholders.
type Prompt struct {
	Name        string
	Description string
	Arguments   []Argument
	Template    string
}

// server is accepted by every prompt and forwarded to the tool calls.
var serverArgument = Argument{
	Name:        "server",
	Description: "Name of the configured History Server to query",
	Clause:      `, server="%s"`,
}

// Render fills the template. Missing optional arguments take their default.
func (p Prompt) Render(args map[string]string) (string, error) {
	var pairs []string
	for _, a := range p.Arguments {
		v := strings.TrimSpace(args[a.Name])
		if v == "" && a.Required {
			return "", fmt.Errorf("%w %q for prompt %s", ErrMissingArgument, a.Name, p.Name)
		}
		if v == "" {
			v = a.Default
		}
		pairs = append(pairs, "{{"+a.Name+"}}", v)

		clause := ""
		if a.Clause != "" && v != "" {
			clause = fmt.Sprintf(a.Clause, v)
		}
		pairs = append(pairs, "{{"+a.Name+"_clause}}", clause)

		if a.Guidance != nil {
			g, ok := a.Guidance[v]
			if !ok {
				g = a.Guidance[a.Default]
			}
			pairs = append(pairs, "{{"+a.Name+"_guidance}}", g)
		}
	}
	return strings.NewReplacer(pairs...).Replace(p.Template), nil
}

func (p Prompt) mcpPrompt() *mcp.Prompt {
	args := make([]*mcp.PromptArgument, 0, len(p.Arguments))
	for _, a := range p.Arguments {
		desc := a.Description
		if a.Default != "" {
			desc += fmt.Sprintf(" (default: %s)", a.Default)
		}
		args = append(args, &mcp.PromptArgument{
			Name:        a.Name,
			Description: desc,
			Required:    a.Required,
		})
	}
	return &mcp.Prompt{
		Name:        p.Name,
		Description: p.Description,
		Arguments:   args,
	}
}

func (p Prompt) handle(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var args map[string]string
	if req.Params != nil {
		args = req.Params.Arguments
	}
	text, err := p.Render(args)
	if err != nil {
		return nil, err
	}
	return &mcp.GetPromptResult{
		Description: p.Description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}, nil
}

// All returns every prompt sorted by name.
func All() []Prompt {
	var all []Prompt
	for _, group := range [][]Prompt{performance, troubleshooting, optimization, reporting} {
		all = append(all, group...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Get looks a prompt up by name.
func Get(name string) (Prompt, error) {
	for _, p := range All() {
		if p.Name == name {
			return p, nil
		}
	}
	return Prompt{}, fmt.Errorf("%w: %s", ErrUnknownPrompt, name)
}

// Register adds every prompt to server.
func Register(server *mcp.Server) {
	for _, p := range All() {
		server.AddPrompt(p.mcpPrompt(), p.handle)
	}
}
