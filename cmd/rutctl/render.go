package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	apperrors "bayi-rut/internal/common/errors"
	"bayi-rut/internal/models"
	"bayi-rut/internal/rut/editor"

	"github.com/fatih/color"
)

func printStops(w io.Writer, stops []models.VisitStop) {
	if len(stops) == 0 {
		fmt.Fprintln(w, "Bu gün için durak yok")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SIRA\tKOD\tMÜŞTERİ\tDURUM\tGRUP")
	for _, s := range stops {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.Sequence, s.CustomerCode, s.CustomerName, customerStatusText(s.CustomerStatus), s.Group)
	}
	tw.Flush()
}

func printMatches(w io.Writer, matches []editor.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "Eşleşen müşteri yok")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSIRA\tKOD\tMÜŞTERİ")
	for _, m := range matches {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", m.Index+1, m.Stop.Sequence, m.Stop.CustomerCode, m.Stop.CustomerName)
	}
	tw.Flush()
}

func printRequests(w io.Writer, requests []models.RouteChangeRequest) {
	if len(requests) == 0 {
		fmt.Fprintln(w, "Talep yok")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDST\tGÜN\tOLUŞTURMA\tDURUM\tDURAK")
	for _, r := range requests {
		created := r.CreatedAt
		if t, ok := r.CreatedTime(); ok {
			created = t.Format("02.01.2006 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", r.ID, r.RepresentativeID, r.Day, created, statusText(r.Status), len(r.Stops))
	}
	tw.Flush()
}

func statusText(s models.RequestStatus) string {
	switch s {
	case models.StatusPending:
		return color.YellowString(s.Label())
	case models.StatusApproved:
		return color.GreenString(s.Label())
	case models.StatusRejected:
		return color.RedString(s.Label())
	default:
		return s.Label()
	}
}

func customerStatusText(s models.CustomerStatus) string {
	if s.Kind() == models.CustomerStatusPassive {
		return color.HiBlackString(string(s))
	}
	return string(s)
}

func printNotice(w io.Writer, n *apperrors.Notice) {
	if n == nil {
		return
	}
	fmt.Fprintf(w, "%s: %s\n", color.RedString(n.Title), n.Message)
	if n.Retryable {
		fmt.Fprintln(w, "Tekrar deneyebilirsiniz.")
	}
}

func displayName(u models.UserProfile) string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}
