/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: decompile.go
Description: Decompile command implementation for protocarve. Renders standalone
serialized descriptor files, where each input holds exactly one descriptor and nothing
else.
*/

package commands

import (
	"fmt"
	"os"

	"github.com/kleascm/protocarve/pkg/carve"
	"github.com/kleascm/protocarve/pkg/interfaces"
	"github.com/kleascm/protocarve/pkg/logging"
	"github.com/kleascm/protocarve/pkg/render"
	"github.com/spf13/cobra"
)

// RunDecompile renders each input as a single descriptor
func RunDecompile(cmd *cobra.Command, args []string) error {
	config, logger, err := prepare(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	sink := newSink(config, cmd.OutOrStdout())
	for _, path := range args {
		if err := decompileFile(path, sink, logger); err != nil {
			return err
		}
	}
	return nil
}

func decompileFile(path string, sink interfaces.RecordSink, logger *logging.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input %s: %w", path, err)
	}

	rec, err := carve.DecodeExact(data)
	if err != nil {
		return fmt.Errorf("%s is not a descriptor: %w", path, err)
	}

	destination, err := sink.Emit(rec.Name, []byte(render.Render(rec)))
	if err != nil {
		return fmt.Errorf("failed to emit %s: %w", rec.Name, err)
	}
	logger.LogOutput(rec.Name, destination, map[string]interface{}{"input": path})
	return nil
}
