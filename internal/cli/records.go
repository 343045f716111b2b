package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jask/cortracker/internal/cor"
	"github.com/jask/cortracker/internal/display"
)

func newAddCommand(s *session) *cobra.Command {
	var (
		d           cor.Draft
		submitted   string
		due         string
		status      string
		priority    string
		attachments int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a COR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if d.SubmittedAt, err = parseDate("submitted", submitted); err != nil {
				return err
			}
			if d.DueAt, err = parseDate("due", due); err != nil {
				return err
			}
			if status != "" {
				if d.Status, err = parseStatus(status); err != nil {
					return err
				}
			}
			if priority != "" {
				if d.Priority, err = parsePriority(priority); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("attachments") {
				d.Attachments = cor.Ptr(attachments)
			}
			d.Tags = cleanTags(d.Tags)
			r := s.app.Store.Create(d)
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %s (%s)\n", r.CORNumber, r.ID, r.Status)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&d.CORNumber, "number", "", "COR number (default COR-NNN)")
	fl.StringVar(&d.Title, "title", "", "Title")
	fl.StringVar(&d.Subcontractor, "sub", "", "Subcontractor")
	fl.StringVar(&d.Trade, "trade", "", "Trade")
	fl.StringVar(&submitted, "submitted", "", "Submitted date (YYYY-MM-DD)")
	fl.StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	fl.StringVar(&status, "status", "", "Status (default Draft)")
	fl.StringVar(&priority, "priority", "", "Priority (default Medium)")
	fl.Float64Var(&d.Amount, "amount", 0, "Amount")
	fl.StringVar(&d.OwnerRef, "owner", "", "Owner reference")
	fl.StringVar(&d.RFI, "rfi", "", "RFI reference")
	fl.StringSliceVar(&d.Tags, "tags", nil, "Tags (comma separated)")
	fl.StringVar(&d.Notes, "notes", "", "Notes")
	fl.IntVar(&attachments, "attachments", 0, "Attachment count")
	return cmd
}

// cleanTags trims tags and drops blanks and the CSV tag separator.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.ReplaceAll(t, "|", " "))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func newAdvanceCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <id|cor-number>",
		Short: "Move a COR to the next status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := resolve(s.app.Store.Snapshot(), args[0])
			if err != nil {
				return err
			}
			s.app.Store.AdvanceStatus(r.ID)
			return printRecord(cmd, s, r.ID)
		},
	}
}

func newPriorityCommand(s *session) *cobra.Command {
	var set string
	cmd := &cobra.Command{
		Use:   "priority <id|cor-number>",
		Short: "Cycle a COR's priority, or set it with --set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := resolve(s.app.Store.Snapshot(), args[0])
			if err != nil {
				return err
			}
			if set == "" {
				s.app.Store.CyclePriority(r.ID)
				return printRecord(cmd, s, r.ID)
			}
			p, err := parsePriority(set)
			if err != nil {
				return err
			}
			s.app.Store.Update(r.ID, cor.Patch{Priority: &p})
			return printRecord(cmd, s, r.ID)
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "Priority to set instead of cycling")
	return cmd
}

func newAmountCommand(s *session) *cobra.Command {
	var (
		by   float64
		down bool
	)
	cmd := &cobra.Command{
		Use:   "amount <id|cor-number>",
		Short: "Raise or lower a COR amount by one step (never below zero)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := resolve(s.app.Store.Snapshot(), args[0])
			if err != nil {
				return err
			}
			delta := s.app.Config.UI.AmountStep
			if cmd.Flags().Changed("by") {
				delta = by
			}
			if down {
				delta = -delta
			}
			s.app.Store.AdjustAmount(r.ID, delta)
			return printRecord(cmd, s, r.ID)
		},
	}
	cmd.Flags().Float64Var(&by, "by", 0, "Change by this amount instead of ui.amount_step (use --by=-50 for negatives)")
	cmd.Flags().BoolVar(&down, "down", false, "Lower instead of raise")
	return cmd
}

func newDeleteCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id|cor-number>",
		Aliases: []string{"rm"},
		Short:   "Delete a COR",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := resolve(s.app.Store.Snapshot(), args[0])
			if err != nil {
				return err
			}
			s.app.Store.Delete(r.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", r.CORNumber, r.ID)
			return nil
		},
	}
}

func printRecord(cmd *cobra.Command, s *session, id string) error {
	r, ok := s.app.Store.Snapshot().Find(id)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownRecord, id)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %s\n",
		r.CORNumber, r.Status, r.Priority, display.Currency(s.app.Config.UI.CurrencySymbol, r.Amount))
	return nil
}
