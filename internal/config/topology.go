// Package config loads the two static configuration files described in
// spec §6 (the topology file and the names file) and provides the
// identifier <-> logical-address resolver the design notes call for.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// basePortDefault and hostDefault are the fallback values used when the
// ROUTER_BASE_PORT / ROUTER_HOST environment variables are unset.
const (
	basePortDefault = 5000
	hostDefault     = "localhost"
)

func init() {
	_ = viper.BindEnv("base_port", "ROUTER_BASE_PORT")
	_ = viper.BindEnv("host", "ROUTER_HOST")
	viper.SetDefault("base_port", basePortDefault)
	viper.SetDefault("host", hostDefault)
}

// BasePort is the port offset described in spec §6's port convention,
// overridable via the ROUTER_BASE_PORT environment variable.
func BasePort() int {
	return viper.GetInt("base_port")
}

// Host is the listen/dial host every node binds to, overridable via the
// ROUTER_HOST environment variable.
func Host() string {
	return viper.GetString("host")
}

// Topology maps a node identifier to its configured, ordered neighbor ids.
type Topology map[string][]string

// topoFile mirrors the on-disk shape {"type": "topo", "config": {...}}.
type topoFile struct {
	Type   string              `mapstructure:"type"`
	Config map[string][]string `mapstructure:"config"`
}

// LoadTopology reads the topology file at path. A missing or malformed
// file yields an empty Topology rather than an error, per spec §6.
func LoadTopology(path string) Topology {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return Topology{}
	}

	var tf topoFile
	if err := v.Unmarshal(&tf); err != nil || tf.Config == nil {
		return Topology{}
	}
	// viper lower-cases every key it reads; identifiers are restored to
	// upper case so they match the neighbor ids listed as values.
	topo := make(Topology, len(tf.Config))
	for id, neighbors := range tf.Config {
		topo[strings.ToUpper(id)] = neighbors
	}
	return topo
}

// Neighbors returns the configured neighbor ids for id, or nil if id has
// no entry in the topology.
func (t Topology) Neighbors(id string) []string {
	return t[id]
}

// PortForID derives a node's canonical listening port from its
// identifier, per spec §6: base_port + (ord(identifier[0]) - ord('A')).
func PortForID(id string) int {
	if id == "" {
		return BasePort()
	}
	return BasePort() + int(strings.ToUpper(id)[0]-'A')
}
