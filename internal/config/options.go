package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the value shape of a server option. It is fixed at
// registry definition time so the form builder never has to inspect a
// default value's runtime type.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindChoice
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindChoice:
		return "choice"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Value is a tagged union holding one server option value.
type Value struct {
	kind  Kind
	boolV bool
	intV  int
	fltV  float64
	strV  string
}

func BoolValue(v bool) Value {
	return Value{kind: KindBool, boolV: v}
}

func IntValue(v int) Value {
	return Value{kind: KindInt, intV: v}
}

func FloatValue(v float64) Value {
	return Value{kind: KindFloat, fltV: v}
}

func ChoiceValue(v string) Value {
	return Value{kind: KindChoice, strV: v}
}

// TextValue normalizes empty or whitespace-only text to the empty
// "no value" form.
func TextValue(v string) Value {
	return Value{kind: KindText, strV: strings.TrimSpace(v)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Bool() bool { return v.boolV }

func (v Value) Int() int { return v.intV }

func (v Value) Float() float64 { return v.fltV }

func (v Value) Text() string { return v.strV }

func (v Value) Equal(other Value) bool {
	return v == other
}

// String renders the value the way form controls display it.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.boolV)
	case KindInt:
		return strconv.Itoa(v.intV)
	case KindFloat:
		return strconv.FormatFloat(v.fltV, 'f', 1, 64)
	default:
		return v.strV
	}
}

// Option describes one configurable server setting.
type Option struct {
	Name     string
	Kind     Kind
	Default  Value
	Shortdoc string
	Longdoc  string
	Choices  []string
}

// registry lists every server option in definition order. The advanced
// tab re-sorts them by Shortdoc for display.
var registry = []Option{
	{
		Name:     "port",
		Kind:     KindInt,
		Default:  IntValue(8080),
		Shortdoc: "Port on which to listen for connections",
		Longdoc:  "The server listens for browser connections on this port. It must not be in use by any other program.",
	},
	{
		Name:     "auth",
		Kind:     KindBool,
		Default:  BoolValue(false),
		Shortdoc: "Password protect access to the server",
		Longdoc:  "Require a username and password before clients can browse the shared library.",
	},
	{
		Name:     "listen_on",
		Kind:     KindText,
		Default:  TextValue("0.0.0.0"),
		Shortdoc: "Interface on which to listen for connections",
		Longdoc:  "The address of the network interface the server binds to. The default listens on all interfaces.",
	},
	{
		Name:     "url_prefix",
		Kind:     KindText,
		Default:  TextValue(""),
		Shortdoc: "URL prefix to prepend to all URLs",
		Longdoc:  "Useful when running the server behind a reverse proxy that maps it under a sub-path.",
	},
	{
		Name:     "auth_mode",
		Kind:     KindChoice,
		Default:  ChoiceValue("auto"),
		Shortdoc: "Type of authentication used by the server",
		Longdoc:  "Auto picks basic auth over HTTPS and digest otherwise. Set explicitly only if clients misbehave.",
		Choices:  []string{"auto", "basic", "digest"},
	},
	{
		Name:     "timeout",
		Kind:     KindFloat,
		Default:  FloatValue(120.0),
		Shortdoc: "Time in seconds until an idle connection is closed",
	},
	{
		Name:     "compress_min_size",
		Kind:     KindInt,
		Default:  IntValue(1024),
		Shortdoc: "Minimum response size in bytes for which compression is used",
	},
	{
		Name:     "worker_count",
		Kind:     KindInt,
		Default:  IntValue(10),
		Shortdoc: "Number of worker threads used to process requests",
	},
	{
		Name:     "max_header_line_size",
		Kind:     KindInt,
		Default:  IntValue(8),
		Shortdoc: "Maximum size of a single HTTP header line, in KB",
	},
	{
		Name:     "max_request_body_size",
		Kind:     KindInt,
		Default:  IntValue(500),
		Shortdoc: "Maximum allowed size of a request body, in MB",
	},
	{
		Name:     "log_not_found",
		Kind:     KindBool,
		Default:  BoolValue(true),
		Shortdoc: "Log HTTP 404 (Not Found) requests",
	},
	{
		Name:     "ban_after",
		Kind:     KindInt,
		Default:  IntValue(5),
		Shortdoc: "Ban IP addresses after this many failed login attempts",
	},
	{
		Name:     "ban_for",
		Kind:     KindInt,
		Default:  IntValue(60),
		Shortdoc: "Duration of IP address bans, in minutes",
	},
	{
		Name:     "preallocate",
		Kind:     KindBool,
		Default:  BoolValue(false),
		Shortdoc: "Preallocate listening sockets before dropping privileges",
	},
	{
		Name:     "userdb",
		Kind:     KindText,
		Default:  TextValue(""),
		Shortdoc: "Path to the user database",
		Longdoc:  "Leave empty to use the user database in the application configuration directory.",
	},
}

// Options returns every option descriptor in registry definition order.
func Options() []Option {
	out := make([]Option, len(registry))
	copy(out, registry)

	return out
}

// OptionByName looks up a single descriptor.
func OptionByName(name string) (Option, bool) {
	for _, opt := range registry {
		if opt.Name == name {
			return opt, true
		}
	}

	return Option{}, false
}
