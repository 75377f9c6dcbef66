package timeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads the official timeline seed file.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and parses the seed file. Unknown keys are rejected.
func (l *Loader) Load() (SeedFile, error) {
	f, err := os.Open(l.filePath)
	if err != nil {
		return SeedFile{}, fmt.Errorf("failed to read timeline seed: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var seed SeedFile
	if err := dec.Decode(&seed); err != nil {
		return SeedFile{}, fmt.Errorf("failed to parse timeline seed: %w", err)
	}
	return seed, nil
}
