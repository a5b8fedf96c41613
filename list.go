package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"i4.energy/across/picorepl/port"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List serial ports and the one that would be picked",
		Long: `List the serial ports attached to the system with their USB ids and
manufacturer. The port automatic selection would connect to is marked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			endpoints, err := port.SystemCatalog{}.List()
			if err != nil {
				return fmt.Errorf("listing ports: %w", err)
			}
			if len(endpoints) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found")
				return nil
			}

			policy := port.DefaultPolicy().WithManufacturers(config.Manufacturers)
			selected, _ := port.Select(endpoints, policy)
			renderEndpoints(cmd.OutOrStdout(), endpoints, selected)
			return nil
		},
	}
}

// renderEndpoints prints the port list as a styled table
func renderEndpoints(w io.Writer, endpoints []port.Endpoint, selected string) {
	const (
		pathWidth = 20
		idWidth   = 8
		mfrWidth  = 24
	)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(mauve).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(surface1)
	cellStyle := lipgloss.NewStyle().PaddingRight(2)
	selectedStyle := cellStyle.Foreground(green).Bold(true)

	fmt.Fprintf(w, "Found %d serial port(s):\n\n", len(endpoints))

	header := fmt.Sprintf("  %-*s %-*s %-*s %-*s",
		pathWidth, "Port",
		idWidth, "VID",
		idWidth, "PID",
		mfrWidth, "Manufacturer")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, e := range endpoints {
		marker, style := " ", cellStyle
		if e.Path == selected {
			marker, style = "*", selectedStyle
		}
		row := fmt.Sprintf("%s %-*s %-*s %-*s %-*s",
			marker,
			pathWidth, e.Path,
			idWidth, orDash(e.VendorID),
			idWidth, orDash(e.ProductID),
			mfrWidth, orDash(e.Manufacturer))
		fmt.Fprintln(w, style.Render(row))
	}

	if selected == "" {
		fmt.Fprintln(w, "\nNo port matches; use --serial-port to pick one")
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
