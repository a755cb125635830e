package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Names maps a node identifier to its logical wire address, e.g.
// "A" -> "nodeA@localhost".
type Names map[string]string

// namesFile mirrors the on-disk shape {"type": "names", "config": {...}}.
type namesFile struct {
	Type   string            `mapstructure:"type"`
	Config map[string]string `mapstructure:"config"`
}

// LoadNames reads the names file at path. A missing or malformed file
// yields an empty Names map, so Resolver falls back to the default
// "<id>@localhost" address for every identifier, per spec §6.
func LoadNames(path string) Names {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return Names{}
	}

	var nf namesFile
	if err := v.Unmarshal(&nf); err != nil || nf.Config == nil {
		return Names{}
	}
	// viper lower-cases every key it reads; identifiers are restored to
	// upper case, the form the topology file and the port formula use.
	names := make(Names, len(nf.Config))
	for id, addr := range nf.Config {
		names[strings.ToUpper(id)] = addr
	}
	return names
}

// Resolver is the bidirectional identifier <-> logical-address mapping
// the design notes call for: short symbolic ids are used internally by
// the flooding algorithm's loop avoidance, full logical addresses travel
// on the wire.
type Resolver struct {
	idToAddr map[string]string
	addrToID map[string]string
}

// NewResolver builds a Resolver from a loaded Names map, defaulting any
// identifier missing from names to "<id>@localhost".
func NewResolver(names Names) *Resolver {
	r := &Resolver{
		idToAddr: make(map[string]string, len(names)),
		addrToID: make(map[string]string, len(names)),
	}
	for id, addr := range names {
		r.idToAddr[id] = addr
		r.addrToID[addr] = id
	}
	return r
}

// Address returns the logical address for id, defaulting to
// "<id>@localhost" if id has no entry.
func (r *Resolver) Address(id string) string {
	if addr, ok := r.idToAddr[id]; ok {
		return addr
	}
	return fmt.Sprintf("%s@localhost", id)
}

// Identifier returns the short symbolic id for addr. If addr was not
// produced by a known identifier, it falls back to parsing
// "<id>@<host>" per the design notes.
func (r *Resolver) Identifier(addr string) (string, bool) {
	if id, ok := r.addrToID[addr]; ok {
		return id, true
	}
	at := strings.IndexByte(addr, '@')
	if at <= 0 {
		return "", false
	}
	id := strings.TrimPrefix(addr[:at], "node")
	return id, id != ""
}

// Register remembers a newly observed address/identifier pair so later
// Identifier/Address lookups resolve it without re-parsing.
func (r *Resolver) Register(id, addr string) {
	r.idToAddr[id] = addr
	r.addrToID[addr] = id
}
