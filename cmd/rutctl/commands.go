package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperrors "bayi-rut/internal/common/errors"
	"bayi-rut/internal/common/session"
	"bayi-rut/internal/models"
	"bayi-rut/internal/rut/approval"
	"bayi-rut/internal/rut/reorder"

	"github.com/urfave/cli/v2"
)

func commands(rt *runtime) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "login",
			Usage: "store a session token and user profile",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "token", Usage: "bearer token issued by the backend", Required: true, EnvVars: []string{"RUT_TOKEN"}},
				&cli.StringFlag{Name: "user-id", Usage: "user / representative id", Required: true},
				&cli.StringFlag{Name: "user-name", Usage: "display name"},
				&cli.StringFlag{Name: "role", Usage: "user role"},
			},
			Action: rt.login,
		},
		{
			Name:   "logout",
			Usage:  "remove the stored session",
			Flags:  []cli.Flag{&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"}},
			Action: rt.logout,
		},
		{
			Name:   "days",
			Usage:  "list the days that have a route",
			Action: rt.days,
		},
		{
			Name:   "stops",
			Usage:  "show the visit order of a day",
			Flags:  []cli.Flag{dayFlag(), &cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "only show customers matching this code or name"}},
			Action: rt.stops,
		},
		{
			Name:  "reorder",
			Usage: "reorder a day's visits and optionally submit the result as a change request",
			Flags: []cli.Flag{
				dayFlag(),
				&cli.StringSliceFlag{Name: "move", Aliases: []string{"m"}, Usage: "INDEX:DIRECTION with 1-based INDEX and DIRECTION up|down|top|bottom, repeatable", Required: true},
				&cli.BoolFlag{Name: "submit", Usage: "submit the new order"},
			},
			Action: rt.reorder,
		},
		{
			Name:   "requests",
			Usage:  "list route change requests",
			Flags:  []cli.Flag{&cli.BoolFlag{Name: "pending", Usage: "only pending requests"}},
			Action: rt.requests,
		},
		{
			Name:   "approve",
			Usage:  "approve a pending request",
			Flags:  statusFlags(),
			Action: rt.setStatus(models.StatusApproved),
		},
		{
			Name:   "reject",
			Usage:  "reject a pending request",
			Flags:  statusFlags(),
			Action: rt.setStatus(models.StatusRejected),
		},
		{
			Name:   "export",
			Usage:  "download a request as an xlsx workbook",
			Flags:  []cli.Flag{idFlag()},
			Action: rt.export,
		},
	}
}

func dayFlag() cli.Flag {
	return &cli.StringFlag{Name: "day", Aliases: []string{"d"}, Usage: "day label as listed by 'days'", Required: true}
}

func idFlag() cli.Flag {
	return &cli.StringFlag{Name: "id", Usage: "request id", Required: true}
}

func statusFlags() []cli.Flag {
	return []cli.Flag{idFlag(), &cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"}}
}

func (rt *runtime) login(c *cli.Context) error {
	user := models.UserProfile{
		ID:   c.String("user-id"),
		Name: c.String("user-name"),
		Role: c.String("role"),
	}
	sess, err := session.Login(c.Context, rt.store, c.String("token"), user)
	if err != nil {
		return rt.fail("Login", err)
	}
	fmt.Fprintf(rt.out, "Giriş yapıldı: %s (%s)\n", displayName(sess.User), sess.User.ID)
	return nil
}

func (rt *runtime) logout(c *cli.Context) error {
	if !c.Bool("yes") {
		ok, err := rt.confirm("Oturum kapatılsın mı?")
		if err != nil {
			return rt.fail("Logout", err)
		}
		if !ok {
			fmt.Fprintln(rt.out, "İptal edildi")
			return nil
		}
	}
	if err := rt.store.Clear(c.Context); err != nil {
		return rt.fail("Logout", err)
	}
	fmt.Fprintln(rt.out, "Oturum kapatıldı")
	return nil
}

func (rt *runtime) days(c *cli.Context) error {
	sess, err := rt.session(c.Context)
	if err != nil {
		return rt.fail("LoadDays", err)
	}
	days, err := rt.newEditor(sess).LoadDays(c.Context)
	if err != nil {
		return rt.fail("LoadDays", err)
	}
	if len(days) == 0 {
		fmt.Fprintln(rt.out, "Tanımlı rota günü yok")
		return nil
	}
	for _, d := range days {
		fmt.Fprintln(rt.out, d)
	}
	return nil
}

func (rt *runtime) stops(c *cli.Context) error {
	sess, err := rt.session(c.Context)
	if err != nil {
		return rt.fail("LoadStops", err)
	}
	ed := rt.newEditor(sess)
	if _, err := ed.LoadStops(c.Context, c.String("day")); err != nil {
		return rt.fail("LoadStops", err)
	}
	if q := c.String("filter"); q != "" {
		printMatches(rt.out, ed.Filter(q))
		return nil
	}
	printStops(rt.out, ed.State().Stops)
	return nil
}

// move is one parsed --move argument.
type move struct {
	Index int
	Dir   reorder.Direction
}

// parseMove reads "INDEX:DIRECTION" with a 1-based index.
func parseMove(s string) (move, error) {
	idx, dir, ok := strings.Cut(s, ":")
	if !ok {
		return move{}, fmt.Errorf("invalid move %q, expected INDEX:DIRECTION", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil || n < 1 {
		return move{}, fmt.Errorf("invalid move %q: index must be a positive number", s)
	}
	d, err := reorder.ParseDirection(dir)
	if err != nil {
		return move{}, fmt.Errorf("invalid move %q: %w", s, err)
	}
	return move{Index: n - 1, Dir: d}, nil
}

func (rt *runtime) reorder(c *cli.Context) error {
	var moves []move
	for _, raw := range c.StringSlice("move") {
		m, err := parseMove(raw)
		if err != nil {
			return rt.fail("MoveStop", apperrors.NewValidationError("Geçersiz taşıma", err.Error()))
		}
		moves = append(moves, m)
	}

	sess, err := rt.session(c.Context)
	if err != nil {
		return rt.fail("Reorder", err)
	}
	ed := rt.newEditor(sess)
	if _, err := ed.LoadStops(c.Context, c.String("day")); err != nil {
		return rt.fail("LoadStops", err)
	}
	if err := ed.EnterEditMode(); err != nil {
		return rt.fail("EnterEditMode", err)
	}
	for _, m := range moves {
		if err := ed.MoveStop(m.Index, m.Dir); err != nil {
			return rt.fail("MoveStop", err)
		}
	}

	printStops(rt.out, ed.State().Working)
	if !c.Bool("submit") {
		fmt.Fprintln(rt.out, "Gönderilmedi; talep oluşturmak için --submit kullanın")
		return nil
	}

	result, err := ed.Submit(c.Context)
	if err != nil {
		return rt.fail("Submit", err)
	}
	if result.Receipt != nil && result.Receipt.ID != "" {
		fmt.Fprintf(rt.out, "Talep gönderildi: %s\n", result.Receipt.ID)
	} else {
		fmt.Fprintln(rt.out, "Talep gönderildi")
	}
	if result.RefreshErr != nil {
		printNotice(rt.out, rt.presenter.Present("LoadStops", result.RefreshErr))
	}
	return nil
}

func (rt *runtime) requests(c *cli.Context) error {
	sess, err := rt.session(c.Context)
	if err != nil {
		return rt.fail("ListRequests", err)
	}
	v := rt.newViewer(sess, approval.AlwaysConfirm)
	if _, err := v.ListRequests(c.Context); err != nil {
		return rt.fail("ListRequests", err)
	}
	list := v.Requests()
	if c.Bool("pending") {
		list = v.Pending()
	}
	printRequests(rt.out, list)
	return nil
}

func (rt *runtime) setStatus(status models.RequestStatus) cli.ActionFunc {
	return func(c *cli.Context) error {
		sess, err := rt.session(c.Context)
		if err != nil {
			return rt.fail("SetStatus", err)
		}
		v := rt.newViewer(sess, rt.confirmer(c.Bool("yes")))
		if _, err := v.ListRequests(c.Context); err != nil {
			return rt.fail("ListRequests", err)
		}

		id := models.RequestID(c.String("id"))
		err = v.SetStatus(c.Context, id, status)
		if errors.Is(err, approval.ErrNotConfirmed) {
			fmt.Fprintln(rt.out, "İptal edildi")
			return nil
		}
		if err != nil {
			return rt.fail("SetStatus", err)
		}
		fmt.Fprintf(rt.out, "Talep %s: %s\n", id, statusText(status))
		return nil
	}
}

func (rt *runtime) export(c *cli.Context) error {
	sess, err := rt.session(c.Context)
	if err != nil {
		return rt.fail("ExportRequest", err)
	}
	v := rt.newViewer(sess, approval.AlwaysConfirm)
	res, err := v.ExportRequest(c.Context, models.RequestID(c.String("id")))
	if err != nil {
		return rt.fail("ExportRequest", err)
	}
	fmt.Fprintf(rt.out, "Dosya hazır (%s): %s, %d satır\n", res.Outcome.Method, res.Outcome.Path, res.Workbook.Rows)
	return nil
}
