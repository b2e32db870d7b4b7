package service

import (
	"fmt"

	"filemeta/internal/binding"
	"filemeta/internal/config"
	"filemeta/internal/function"
)

// Registrations builds the enabled function registrations from configuration.
func Registrations(cfg config.FunctionsConfig) ([]Registration, error) {
	var regs []Registration

	if cfg.ExtractEnabled {
		b, err := binding.New(cfg.ExtractTrigger, cfg.ExtractOutput)
		if err != nil {
			return nil, fmt.Errorf("ExtractMetadata binding: %w", err)
		}
		regs = append(regs, Registration{Func: function.ExtractMetadata{}, Binding: b})
	}

	if cfg.CopyEnabled {
		b, err := binding.New(cfg.CopyTrigger, cfg.CopyOutput)
		if err != nil {
			return nil, fmt.Errorf("CopyFile binding: %w", err)
		}
		regs = append(regs, Registration{Func: function.CopyFile{BufferSize: cfg.CopyBufferSize}, Binding: b})
	}

	return regs, nil
}

// Containers returns the distinct trigger and output containers of regs, triggers first.
func Containers(regs []Registration) (triggers, outputs []string) {
	seenT, seenO := make(map[string]bool), make(map[string]bool)
	for _, r := range regs {
		if c := r.Binding.Trigger.Container(); !seenT[c] {
			seenT[c] = true
			triggers = append(triggers, c)
		}
		if c := r.Binding.Output.Container(); !seenO[c] {
			seenO[c] = true
			outputs = append(outputs, c)
		}
	}
	return triggers, outputs
}
