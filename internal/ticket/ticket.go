// Package ticket parses toy-MC run requests and rewrites their file paths
// for execution in a flat remote staging directory.
//
// A ticket is a shell-quoted command string produced by the run-request
// generator: the first token is discarded, the second is the path of the
// executable to run, and the remainder are `--name value` flags that decode
// into a typed argument record.
package ticket

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
)

// Toy-data modes the remote wrapper knows how to run. Any other mode is a
// hard build error, never a silent skip.
const (
	ModeGenerate         = "generate"
	ModeGenerateAndStore = "generate_and_store"
)

// Flag is a single pass-through command-line flag, kept in encounter order.
type Flag struct {
	Name  string
	Value string
}

// ModelArgs is the nested statistical-model argument blob. TemplatePath and
// LimitThreshold are the two fields the submitter rewrites; everything else
// passes through untouched in raw.
type ModelArgs struct {
	TemplatePath   string
	LimitThreshold string

	raw map[string]any
}

// Args is the decoded argument set of one ticket.
type Args struct {
	ToydataMode            string
	ToydataFilename        string
	OutputFilename         string
	StatisticalModelConfig string
	ModelArgs              ModelArgs
	// Extra holds flags this submitter does not interpret, in encounter order.
	Extra []Flag
}

// Ticket is one fully specified toy-MC run request.
type Ticket struct {
	// Executable is the base name of the program the wrapper invokes.
	Executable string
	Args       Args
}

// Parse tokenizes a ticket command string and decodes its flags. A string
// that cannot be tokenized into `<prefix> <executable> <flags...>` is a
// fatal parse error.
func Parse(command string) (*Ticket, error) {
	tokens, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("cannot tokenize ticket %q: %w", command, err)
	}
	if len(tokens) < 2 {
		return nil, fmt.Errorf("malformed ticket %q: expected at least an executable after the leading token", command)
	}

	t := &Ticket{Executable: filepath.Base(tokens[1])}
	if err := decodeFlags(tokens[2:], &t.Args); err != nil {
		return nil, fmt.Errorf("malformed ticket %q: %w", command, err)
	}
	return t, nil
}

// decodeFlags maps `--name value` and `--name=value` pairs onto Args.
func decodeFlags(tokens []string, args *Args) error {
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if !strings.HasPrefix(token, "--") {
			return fmt.Errorf("expected a flag, got %q", token)
		}

		name := strings.TrimPrefix(token, "--")
		var value string
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name, value = name[:eq], name[eq+1:]
		} else {
			i++
			if i >= len(tokens) {
				return fmt.Errorf("flag --%s has no value", name)
			}
			value = tokens[i]
		}

		switch name {
		case "toydata_mode":
			args.ToydataMode = value
		case "toydata_filename":
			args.ToydataFilename = value
		case "output_filename":
			args.OutputFilename = value
		case "statistical_model_config":
			args.StatisticalModelConfig = value
		case "statistical_model_args":
			modelArgs, err := parseModelArgs(value)
			if err != nil {
				return fmt.Errorf("flag --statistical_model_args: %w", err)
			}
			args.ModelArgs = modelArgs
		default:
			args.Extra = append(args.Extra, Flag{Name: name, Value: value})
		}
	}
	return nil
}

// parseModelArgs decodes the JSON blob carried by --statistical_model_args.
func parseModelArgs(value string) (ModelArgs, error) {
	raw := map[string]any{}
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return ModelArgs{}, fmt.Errorf("invalid JSON %q: %w", value, err)
	}

	ma := ModelArgs{raw: raw}
	if v, ok := raw["template_path"].(string); ok {
		ma.TemplatePath = v
	}
	if v, ok := raw["limit_threshold"].(string); ok {
		ma.LimitThreshold = v
	}
	return ma, nil
}

// ValidateMode rejects toy-data modes the remote wrapper cannot run.
func (a Args) ValidateMode() error {
	switch a.ToydataMode {
	case ModeGenerate, ModeGenerateAndStore:
		return nil
	default:
		return fmt.Errorf("toydata mode %q is not implemented for grid submission, only %q and %q are supported",
			a.ToydataMode, ModeGenerate, ModeGenerateAndStore)
	}
}

// StoresToydata reports whether the ticket asked for its intermediate toy
// data to be persisted alongside the fit results.
func (a Args) StoresToydata() bool {
	return a.ToydataMode == ModeGenerateAndStore
}

// Argv renders the argument vector passed to the remote wrapper: one
// JSON-escaped token per field in canonical order, followed by pass-through
// flags in encounter order. The wrapper splits its input on whitespace, so
// spaces inside tokens are stripped.
func (a Args) Argv() []string {
	argv := []string{
		quoteArg(a.ToydataMode),
		quoteArg(a.ToydataFilename),
		quoteArg(a.OutputFilename),
		quoteArg(a.StatisticalModelConfig),
		quoteArg(a.ModelArgs.encode()),
	}
	for _, f := range a.Extra {
		argv = append(argv, quoteArg(f.Value))
	}
	return argv
}

// encode serializes the model args back to compact JSON with the rewritten
// fields folded in.
func (m ModelArgs) encode() string {
	raw := m.cloneRaw()
	if m.TemplatePath != "" {
		raw["template_path"] = m.TemplatePath
	}
	if m.LimitThreshold != "" {
		raw["limit_threshold"] = m.LimitThreshold
	}
	b, err := json.Marshal(raw)
	if err != nil {
		// raw came out of json.Unmarshal, so it is always marshalable.
		panic(fmt.Sprintf("ticket: re-encoding model args: %v", err))
	}
	return string(b)
}

func (m ModelArgs) cloneRaw() map[string]any {
	clone := make(map[string]any, len(m.raw))
	for k, v := range m.raw {
		clone[k] = v
	}
	return clone
}

func quoteArg(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("ticket: quoting argument: %v", err))
	}
	return strings.ReplaceAll(string(b), " ", "")
}
