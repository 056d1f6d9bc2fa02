package cli

import (
	"context"

	"github.com/leandrodaf/midihex/internal/session"
	"github.com/leandrodaf/midihex/sdk/contracts"
	"github.com/spf13/cobra"
)

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List available MIDI input and output ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, s *session.Session) error {
				return s.List(ctx)
			})
		},
	}
}

func addFormatFlags(cmd *cobra.Command, opts *contracts.FormatOptions) {
	cmd.Flags().BoolVar(&opts.ShowTimestamp, "show-ts", false, "prefix each line with the driver timestamp")
	cmd.Flags().BoolVar(&opts.ShowSize, "show-size", false, "prefix each line with the message size")
}

func (a *app) readCommand() *cobra.Command {
	var opts contracts.FormatOptions
	cmd := &cobra.Command{
		Use:   "r <in_port_name>",
		Short: "Read from a MIDI input port and print each message as hex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, s *session.Session) error {
				return s.Read(ctx, args[0], opts)
			})
		},
	}
	addFormatFlags(cmd, &opts)
	return cmd
}

func (a *app) writeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "w <out_port_name>",
		Short: "Send hex lines from stdin to a MIDI output port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, s *session.Session) error {
				return s.Write(ctx, args[0])
			})
		},
	}
}

func (a *app) readWriteCommand() *cobra.Command {
	var opts contracts.FormatOptions
	cmd := &cobra.Command{
		Use:   "rw <in_port_name> <out_port_name>",
		Short: "Print messages from an input port while sending stdin to an output port",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context, s *session.Session) error {
				return s.ReadWrite(ctx, args[0], args[1], opts)
			})
		},
	}
	addFormatFlags(cmd, &opts)
	return cmd
}
