package agent

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed agents.yaml
var defaultDefinitions []byte

// Definition describe un agente: su instruccion de sistema y las herramientas que puede usar.
type Definition struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Instruction string   `yaml:"instruction"`
	Tools       []string `yaml:"tools"`
}

type definitionFile struct {
	Agents []Definition `yaml:"agents"`
}

func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("agent: name is required")
	}
	if strings.TrimSpace(d.Instruction) == "" {
		return fmt.Errorf("agent %s: instruction is required", d.Name)
	}
	return nil
}

// ParseDefinitions decodifica el YAML de agentes y valida cada entrada.
func ParseDefinitions(data []byte) (map[string]Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("agent: definitions payload is empty")
	}
	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("agent: decode definitions: %w", err)
	}
	out := make(map[string]Definition, len(file.Agents))
	for _, def := range file.Agents {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := out[def.Name]; dup {
			return nil, fmt.Errorf("agent: duplicate definition %q", def.Name)
		}
		def.Instruction = strings.TrimSpace(def.Instruction)
		out[def.Name] = def
	}
	return out, nil
}

// LoadDefinition devuelve el agente pedido. Sin path usa las definiciones embebidas.
func LoadDefinition(path, name string) (Definition, error) {
	data := defaultDefinitions
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Definition{}, fmt.Errorf("agent: read %s: %w", path, err)
		}
		data = raw
	}
	defs, err := ParseDefinitions(data)
	if err != nil {
		return Definition{}, err
	}
	def, ok := defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("agent: unknown agent %q", name)
	}
	return def, nil
}
