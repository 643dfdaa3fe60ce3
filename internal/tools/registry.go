package tools

// Definition describes a tool exposed over the stdio tool server.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
}

type ParameterType string

const (
	ParamString  ParameterType = "string"
	ParamNumber  ParameterType = "number"
	ParamBoolean ParameterType = "boolean"
)

type Parameter struct {
	Name        string
	Type        ParameterType
	Description string
	Required    bool
	Enum        []string
}

func (pt ParameterType) JSONType() string {
	switch pt {
	case ParamString:
		return "string"
	case ParamNumber:
		return "number"
	case ParamBoolean:
		return "boolean"
	default:
		return "string"
	}
}

var definitions = []Definition{
	{
		Name:        "load",
		Description: "Load a document from a URL, file path, or inline HTML and make it current for subsequent tools.",
		Parameters: []Parameter{
			{Name: "source", Type: ParamString, Description: "URL or file path of the document to load", Required: true},
			{Name: "render", Type: ParamBoolean, Description: "run the page in a headless browser before reading it"},
		},
	},
	{
		Name:        "search",
		Description: "Match elements by CSS selector, focus the first match, and return a numbered list for navigation.",
		Parameters: []Parameter{
			{Name: "selector", Type: ParamString, Description: "CSS selector to query", Required: true},
		},
	},
	{
		Name:        "next",
		Description: "Advance to the next element in the active list or jump to a specific index.",
		Parameters: []Parameter{
			{Name: "index", Type: ParamNumber, Description: "optional index to jump to"},
		},
	},
	{
		Name:        "prev",
		Description: "Move to the previous element in the active list or jump to a specific index.",
		Parameters: []Parameter{
			{Name: "index", Type: ParamNumber, Description: "optional index to jump to"},
		},
	},
	{
		Name:        "parent",
		Description: "Focus the parent element of the current selection.",
	},
	{
		Name:        "child",
		Description: "Focus the first child element of the current selection.",
	},
	{
		Name:        "report",
		Description: "Describe the current element: tag, child count, and leading text.",
	},
	{
		Name:        "text",
		Description: "Print the text of the current element, optionally truncating to a specified length.",
		Parameters: []Parameter{
			{Name: "length", Type: ParamNumber, Description: "optional maximum number of characters to return"},
		},
	},
	{
		Name: "get_html",
		Description: "Get the raw HTML of the current element. " +
			"Beware: this returns the full markup and can be very large. " +
			"In most cases, use \"to_markdown\" for a more concise output.",
	},
	{
		Name:        "attrs",
		Description: "Return the attributes of the current element as formatted JSON.",
	},
	{
		Name:        "count",
		Description: "Count the elements matching a CSS selector.",
		Parameters: []Parameter{
			{Name: "selector", Type: ParamString, Description: "CSS selector to count", Required: true},
		},
	},
	{
		Name:        "set_text",
		Description: "Replace the text content of the current element.",
		Parameters: []Parameter{
			{Name: "text", Type: ParamString, Description: "replacement text", Required: true},
		},
	},
	{
		Name:        "set_html",
		Description: "Replace the inner HTML of the current element.",
		Parameters: []Parameter{
			{Name: "html", Type: ParamString, Description: "replacement markup", Required: true},
		},
	},
	{
		Name:        "set_attr",
		Description: "Set an attribute on the current element.",
		Parameters: []Parameter{
			{Name: "name", Type: ParamString, Description: "attribute name", Required: true},
			{Name: "value", Type: ParamString, Description: "attribute value", Required: true},
		},
	},
	{
		Name:        "add_class",
		Description: "Add a class to the current element.",
		Parameters: []Parameter{
			{Name: "name", Type: ParamString, Description: "class name", Required: true},
		},
	},
	{
		Name:        "remove_class",
		Description: "Remove a class from the current element.",
		Parameters: []Parameter{
			{Name: "name", Type: ParamString, Description: "class name", Required: true},
		},
	},
	{
		Name:        "css",
		Description: "Set an inline style property on the current element.",
		Parameters: []Parameter{
			{Name: "property", Type: ParamString, Description: "style property name", Required: true},
			{Name: "value", Type: ParamString, Description: "style value; empty removes the property", Required: true},
		},
	},
	{
		Name:        "append",
		Description: "Insert markup relative to the current element.",
		Parameters: []Parameter{
			{Name: "position", Type: ParamString, Description: "where to insert", Required: true,
				Enum: []string{"before", "after", "atstart", "atend"}},
			{Name: "markup", Type: ParamString, Description: "HTML fragment to insert", Required: true},
		},
	},
	{
		Name:        "detach",
		Description: "Detach the current element from the document.",
	},
	{
		Name:        "to_markdown",
		Description: "Convert the current document into a structured Markdown document.",
	},
	{
		Name:        "meta",
		Description: "Extract page metadata: title, meta tags, canonical link, headings, and links.",
	},
	{
		Name:        "request",
		Description: "Issue an HTTP request and report the outcome.",
		Parameters: []Parameter{
			{Name: "url", Type: ParamString, Description: "target URL; relative URLs resolve against the current document", Required: true},
			{Name: "method", Type: ParamString, Description: "HTTP method (default GET)"},
			{Name: "body", Type: ParamString, Description: "optional request body"},
		},
	},
	{
		Name:        "save_snapshot",
		Description: "Persist the current document to the snapshot store and return its id.",
	},
	{
		Name:        "list_snapshots",
		Description: "List stored snapshots with their ids, URLs, and titles.",
	},
	{
		Name:        "load_snapshot",
		Description: "Restore a stored snapshot as the current document.",
		Parameters: []Parameter{
			{Name: "id", Type: ParamNumber, Description: "snapshot id from list_snapshots", Required: true},
		},
	},
	{
		Name:        "shutdown",
		Description: "Shut down the tool server.",
	},
}

// List returns all registered tool definitions.
func List() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup finds a tool definition by name.
func Lookup(name string) (Definition, bool) {
	for _, def := range definitions {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}
