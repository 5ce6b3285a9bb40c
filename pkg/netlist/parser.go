package netlist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/edp1096/toy-acdc/pkg/device"
)

type AnalysisType int

const (
	AnalysisOP AnalysisType = iota
	AnalysisAC
	AnalysisDC
)

func (a AnalysisType) String() string {
	switch a {
	case AnalysisOP:
		return "op"
	case AnalysisAC:
		return "ac"
	case AnalysisDC:
		return "dc"
	default:
		return "unknown"
	}
}

type NetlistData struct {
	Title    string
	Elements []Element                    // Circuit elements in file order
	Models   map[string]device.ModelParam // Model parameters
	Analysis AnalysisType                 // Analysis type
	ACParam  struct {
		Sweep  string  // DEC, OCT, LIN
		Points int     // points per decade/octave, or total for LIN
		FStart float64 // start frequency
		FStop  float64 // stop frequency
	}
	DCParam struct {
		Source    string
		Start     float64
		Stop      float64
		Increment float64
	}
}

type Element struct {
	Type   string            // Part type (R, L, C, V, etc.)
	Name   string            // Part name
	Nodes  []string          // Node names
	Value  float64           // Part value
	Params map[string]string // Parameter values
	Group2 bool              // Keep the element current as an unknown
}

var netlistLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `\*[^\n]*`},
	{Name: "Continue", Pattern: `\n[ \t\r]*\+`},
	{Name: "EOL", Pattern: `\n`},
	{Name: "Whitespace", Pattern: `[ \t\r,]+`},
	{Name: "Directive", Pattern: `\.[A-Za-z]+`},
	{Name: "Punct", Pattern: `[=()]`},
	{Name: "Word", Pattern: `[^\s=()*,]+`},
})

type netlistAST struct {
	Lines []*lineAST `parser:"@@*"`
}

type lineAST struct {
	Pos       lexer.Position
	Directive string      `parser:"( @Directive"`
	Name      string      `parser:"| @Word )?"`
	Fields    []*fieldAST `parser:"@@* EOL"`
}

type fieldAST struct {
	Key   string    `parser:"(  @Word \"=\""`
	Value string    `parser:"   @Word"`
	Group *groupAST `parser:"| @@"`
	Word  string    `parser:"| @Word )"`
}

type groupAST struct {
	Fields []*fieldAST `parser:"\"(\" @@* \")\""`
}

var netlistParser = participle.MustBuild[netlistAST](
	participle.Lexer(netlistLexer),
	participle.Elide("Comment", "Continue", "Whitespace"),
	participle.UseLookahead(2),
)

// Parse reads a SPICE style netlist. The first line is the title.
func Parse(input string) (*NetlistData, error) {
	netlistData := &NetlistData{
		Models: make(map[string]device.ModelParam),
	}

	title, body, _ := strings.Cut(input, "\n")
	netlistData.Title = strings.TrimSpace(strings.TrimPrefix(title, "*"))

	// Keep the title's newline so reported lines match the file.
	ast, err := netlistParser.ParseString("", "\n"+body+"\n")
	if err != nil {
		return nil, fmt.Errorf("parsing netlist: %w", err)
	}

	for _, line := range ast.Lines {
		if line.Directive == "" && line.Name == "" {
			continue
		}

		if line.Directive != "" {
			if strings.EqualFold(line.Directive, ".end") {
				break
			}
			if err := parseDotOperator(netlistData, line); err != nil {
				return nil, fmt.Errorf("line %d: %w", line.Pos.Line, err)
			}
			continue
		}

		element, err := parseElement(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line.Pos.Line, err)
		}
		netlistData.Elements = append(netlistData.Elements, *element)
	}

	return netlistData, nil
}

// flatten splits fields into positional words and key=value parameters.
// Parenthesised groups are inlined.
func flatten(fields []*fieldAST) (words []string, params map[string]string) {
	params = make(map[string]string)

	var walk func([]*fieldAST)
	walk = func(fs []*fieldAST) {
		for _, f := range fs {
			switch {
			case f.Key != "":
				params[strings.ToLower(f.Key)] = f.Value
			case f.Group != nil:
				walk(f.Group.Fields)
			default:
				words = append(words, f.Word)
			}
		}
	}
	walk(fields)

	return words, params
}

// Parse .op, .ac, .dc, .model
func parseDotOperator(netlistData *NetlistData, line *lineAST) error {
	var err error

	if strings.EqualFold(line.Directive, ".model") {
		return parseModel(netlistData, line.Fields)
	}

	fields, _ := flatten(line.Fields)

	switch strings.ToLower(line.Directive) {
	case ".op":
		netlistData.Analysis = AnalysisOP

	case ".ac":
		netlistData.Analysis = AnalysisAC
		if len(fields) < 4 {
			return fmt.Errorf("insufficient AC parameters, need sweep type, points, fstart, and fstop")
		}

		// DEC, OCT, LIN
		netlistData.ACParam.Sweep = strings.ToUpper(fields[0])
		if netlistData.ACParam.Sweep != "DEC" && netlistData.ACParam.Sweep != "OCT" && netlistData.ACParam.Sweep != "LIN" {
			return fmt.Errorf("invalid sweep type: %s", netlistData.ACParam.Sweep)
		}

		netlistData.ACParam.Points, err = strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid points number: %w", err)
		}
		netlistData.ACParam.FStart, err = ParseValue(fields[2])
		if err != nil {
			return fmt.Errorf("invalid fstart: %w", err)
		}
		netlistData.ACParam.FStop, err = ParseValue(fields[3])
		if err != nil {
			return fmt.Errorf("invalid fstop: %w", err)
		}

	case ".dc":
		netlistData.Analysis = AnalysisDC
		if len(fields) < 4 {
			return fmt.Errorf("insufficient DC sweep parameters")
		}

		netlistData.DCParam.Source = fields[0]
		netlistData.DCParam.Start, err = ParseValue(fields[1])
		if err != nil {
			return fmt.Errorf("invalid start value: %w", err)
		}
		netlistData.DCParam.Stop, err = ParseValue(fields[2])
		if err != nil {
			return fmt.Errorf("invalid stop value: %w", err)
		}
		netlistData.DCParam.Increment, err = ParseValue(fields[3])
		if err != nil {
			return fmt.Errorf("invalid increment value: %w", err)
		}

	default:
		return fmt.Errorf("unsupported analysis type: %s", line.Directive)
	}

	return nil
}

// .model NAME TYPE(key=value ...)
func parseModel(netlistData *NetlistData, fields []*fieldAST) error {
	words, rawParams := flatten(fields)
	if len(words) < 2 {
		return fmt.Errorf("insufficient model parameters")
	}

	modelName := words[0]
	modelType := strings.ToUpper(words[1])

	params := make(map[string]float64)
	for name, raw := range rawParams {
		value, err := ParseValue(raw)
		if err != nil {
			return fmt.Errorf("invalid parameter value %s=%s: %w", name, raw, err)
		}
		params[name] = value
	}

	netlistData.Models[modelName] = device.ModelParam{
		Type:   modelType,
		Name:   modelName,
		Params: params,
	}

	return nil
}

// Parse circuit element
func parseElement(line *lineAST) (*Element, error) {
	fields, params := flatten(line.Fields)

	elem := &Element{
		Name:   line.Name,
		Type:   strings.ToUpper(line.Name[:1]),
		Params: params,
	}

	// Trailing G2 keeps the element current in the solution.
	if n := len(fields); n > 0 && strings.EqualFold(fields[n-1], "G2") {
		elem.Group2 = true
		fields = fields[:n-1]
	}

	switch elem.Type {
	case "R", "C", "L":
		return elem, parseTwoTerminal(elem, fields)

	case "V", "I":
		return elem, parseSource(elem, fields)

	case "E", "G":
		return elem, parseNodesValue(elem, fields, 4)

	case "F", "H":
		// F1 p n VCTRL gain
		if len(fields) != 4 {
			return nil, fmt.Errorf("%s: need 2 nodes, a controlling source and a gain", elem.Name)
		}
		elem.Nodes = fields[:2]
		elem.Params["control"] = fields[2]
		value, err := ParseValue(fields[3])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", elem.Name, err)
		}
		elem.Value = value
		return elem, nil

	case "K":
		if len(fields) != 3 {
			return nil, fmt.Errorf("%s: mutual coupling needs two inductors and a coefficient", elem.Name)
		}
		coefficient, err := ParseValue(fields[2])
		if err != nil {
			return nil, fmt.Errorf("invalid coupling coefficient: %w", err)
		}
		if coefficient < -1 || coefficient > 1 {
			return nil, fmt.Errorf("coupling coefficient must be between -1 and 1: %f", coefficient)
		}
		elem.Params["ind1"] = fields[0]
		elem.Params["ind2"] = fields[1]
		elem.Value = coefficient
		return elem, nil

	case "D", "Q", "M":
		numNodes := map[string]int{"D": 2, "Q": 3, "M": 4}[elem.Type]
		if len(fields) < numNodes {
			return nil, fmt.Errorf("%s: requires %d nodes", elem.Name, numNodes)
		}
		elem.Nodes = fields[:numNodes]
		if len(fields) > numNodes {
			elem.Params["model"] = fields[numNodes]
		}
		return elem, nil
	}

	return nil, fmt.Errorf("unsupported element type: %s", elem.Name)
}

func parseTwoTerminal(elem *Element, fields []string) error {
	return parseNodesValue(elem, fields, 2)
}

func parseNodesValue(elem *Element, fields []string, numNodes int) error {
	if len(fields) != numNodes+1 {
		return fmt.Errorf("%s: need %d nodes and a value, got %d fields", elem.Name, numNodes, len(fields))
	}

	value, err := ParseValue(fields[numNodes])
	if err != nil {
		return fmt.Errorf("%s: %w", elem.Name, err)
	}
	elem.Nodes = fields[:numNodes]
	elem.Value = value

	return nil
}

// V1 p n [DC] value [AC mag [phase]]
func parseSource(elem *Element, fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("%s: insufficient source parameters", elem.Name)
	}
	elem.Nodes = fields[:2]

	words := fields[2:]
	for len(words) > 0 {
		switch strings.ToUpper(words[0]) {
		case "DC":
			if len(words) < 2 {
				return fmt.Errorf("%s: missing DC value", elem.Name)
			}
			value, err := ParseValue(words[1])
			if err != nil {
				return fmt.Errorf("%s: %w", elem.Name, err)
			}
			elem.Value = value
			words = words[2:]

		case "AC":
			if len(words) < 2 {
				return fmt.Errorf("%s: missing AC magnitude", elem.Name)
			}
			if _, err := ParseValue(words[1]); err != nil {
				return fmt.Errorf("%s: invalid AC magnitude: %w", elem.Name, err)
			}
			elem.Params["acmag"] = words[1]
			elem.Params["acphase"] = "0"
			words = words[2:]

			if len(words) > 0 {
				if _, err := ParseValue(words[0]); err == nil {
					elem.Params["acphase"] = words[0]
					words = words[1:]
				}
			}

		case "SIN", "PULSE", "PWL", "EXP", "SFFM":
			return fmt.Errorf("%s: transient source %s is not supported", elem.Name, words[0])

		default:
			value, err := ParseValue(words[0])
			if err != nil {
				return fmt.Errorf("%s: unsupported source type: %s", elem.Name, words[0])
			}
			elem.Value = value
			words = words[1:]
		}
	}

	return nil
}

var unitMap = map[string]float64{
	"t":   1e12,  // tera
	"g":   1e9,   // giga
	"meg": 1e6,   // mega
	"k":   1e3,   // kilo
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

var valueRe = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)(?i:(meg|[tgkmunpf])?[a-z]*)$`)

// ParseValue - Parse value and factor. 1k -> 1000. Suffixes are case
// insensitive and any trailing unit letters are ignored: 10uF, 1Meg.
func ParseValue(val string) (float64, error) {
	matches := valueRe.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	// factor
	if matches[2] != "" {
		num *= unitMap[strings.ToLower(matches[2])]
	}

	return num, nil
}
