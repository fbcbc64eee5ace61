package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"roomrenting/internal/export"
	"roomrenting/internal/models"
	"roomrenting/internal/session"
	"roomrenting/internal/validator"
	"roomrenting/internal/workflow"
)

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	return nil
}

func passwordFlag(fs *flag.FlagSet) *string {
	return fs.String("password", os.Getenv("ROOMRENT_PASSWORD"), "password (defaults to $ROOMRENT_PASSWORD)")
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := a.flagSet("signup")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	password := passwordFlag(fs)
	phone := fs.String("phone", "", "phone number, 10 to 20 digits")
	role := fs.String("role", string(models.RoleTenant), "Tenant or Admin")
	if err := parse(fs, args); err != nil {
		return err
	}

	req := models.SignupRequest{
		Name:        strings.TrimSpace(*name),
		Email:       strings.TrimSpace(*email),
		Password:    *password,
		UserType:    models.Role(*role),
		PhoneNumber: strings.TrimSpace(*phone),
	}
	if err := validator.Check(req); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	msg, err := a.client.Signup(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flagSet("login")
	email := fs.String("email", "", "email address")
	password := passwordFlag(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("%w: -email and -password are required", errUsage)
	}

	sess, err := a.sessions.Login(ctx, a.client, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", sess.Name, sess.Role)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.sessions.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	sess, err := a.sessions.Current(ctx)
	if err != nil {
		return err
	}
	printSession(a.out, sess)
	return nil
}

func (a *app) rooms(ctx context.Context, args []string) error {
	fs := a.flagSet("rooms")
	available := fs.Bool("available", false, "only rooms open for booking")
	unavailable := fs.Bool("unavailable", false, "only rooms closed for booking")
	if err := parse(fs, args); err != nil {
		return err
	}

	_, client, err := a.authed(ctx)
	if err != nil {
		return err
	}

	var rooms []models.Room
	switch {
	case *available && *unavailable:
		return fmt.Errorf("%w: -available and -unavailable are exclusive", errUsage)
	case *available:
		rooms, err = client.ListRoomsByAvailability(ctx, true)
	case *unavailable:
		rooms, err = client.ListRoomsByAvailability(ctx, false)
	default:
		rooms, err = client.ListRoomsWithBuildings(ctx)
	}
	if err != nil {
		return err
	}
	printRooms(a.out, rooms)
	return nil
}

func (a *app) buildings(ctx context.Context) error {
	_, client, err := a.authed(ctx)
	if err != nil {
		return err
	}
	buildings, err := client.ListBuildings(ctx)
	if err != nil {
		return err
	}
	printBuildings(a.out, buildings)
	return nil
}

type stayFlags struct {
	room     *int64
	checkIn  *string
	checkOut *string
}

func addStayFlags(fs *flag.FlagSet) stayFlags {
	return stayFlags{
		room:     fs.Int64("room", 0, "room id"),
		checkIn:  fs.String("in", "", "check-in date, YYYY-MM-DD"),
		checkOut: fs.String("out", "", "check-out date, YYYY-MM-DD"),
	}
}

// findRoom loads the room from the catalog so pricing uses the listed price.
func (a *app) findRoom(ctx context.Context, id int64) (models.Room, *session.Session, error) {
	sess, client, err := a.authed(ctx)
	if err != nil {
		return models.Room{}, nil, err
	}
	if id <= 0 {
		return models.Room{}, nil, fmt.Errorf("%w: -room is required", errUsage)
	}

	rooms, err := client.ListRoomsWithBuildings(ctx)
	if err != nil {
		return models.Room{}, nil, err
	}
	for _, r := range rooms {
		if r.RoomID == id {
			return r, sess, nil
		}
	}
	return models.Room{}, nil, fmt.Errorf("room %d not found", id)
}

func (a *app) quote(ctx context.Context, args []string) error {
	fs := a.flagSet("quote")
	stay := addStayFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	dates, err := workflow.ParseStay(*stay.checkIn, *stay.checkOut)
	if err != nil {
		return err
	}
	room, _, err := a.findRoom(ctx, *stay.room)
	if err != nil {
		return err
	}
	res, err := workflow.ComputePrice(room, dates.CheckIn, dates.CheckOut)
	if err != nil {
		return err
	}
	printQuote(a.out, room, res)
	return nil
}

func (a *app) book(ctx context.Context, args []string) error {
	fs := a.flagSet("book")
	stay := addStayFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	dates, err := workflow.ParseStay(*stay.checkIn, *stay.checkOut)
	if err != nil {
		return err
	}
	room, sess, err := a.findRoom(ctx, *stay.room)
	if err != nil {
		return err
	}
	if !room.Availability {
		return fmt.Errorf("room %d is not available for booking", room.RoomID)
	}

	wf := workflow.New(a.client.WithToken(sess.Token), a.cfg.Booking, a.bus, &a.logger)
	attempt := wf.NewAttempt(sess, room)

	res, err := attempt.SetDates(dates.CheckIn, dates.CheckOut)
	if err != nil {
		return err
	}
	printQuote(a.out, room, res)

	bookingID, err := attempt.SubmitBooking(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booking %d created\n", bookingID)

	payment, err := attempt.SubmitPayment(ctx)
	if err != nil {
		if errors.Is(err, workflow.ErrCompensated) {
			fmt.Fprintf(a.out, "Booking %d cancelled after failed payment\n", bookingID)
		}
		return err
	}
	fmt.Fprintf(a.out, "Payment %s: %s paid on %s\n", payment.Status, payment.Amount, payment.PaymentDate)
	return nil
}

func (a *app) bookings(ctx context.Context, args []string) error {
	fs := a.flagSet("bookings")
	doExport := fs.Bool("export", false, "write an xlsx workbook to exports.path")
	if err := parse(fs, args); err != nil {
		return err
	}

	sess, client, err := a.authed(ctx)
	if err != nil {
		return err
	}
	if err := session.RequireRole(sess, models.RoleAdmin); err != nil {
		return err
	}

	bookings, err := client.ListBookings(ctx)
	if err != nil {
		return err
	}

	if *doExport {
		path, err := export.NewExporter(a.cfg.Exports.Path, &a.logger).Bookings(bookings)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Exported %d bookings to %s\n", len(bookings), path)
		return nil
	}
	printBookings(a.out, bookings)
	return nil
}

func (a *app) admin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: admin needs add-building, add-room or set-availability", errUsage)
	}

	sess, client, err := a.authed(ctx)
	if err != nil {
		return err
	}
	if err := session.RequireRole(sess, models.RoleAdmin); err != nil {
		return err
	}

	sub, rest := args[0], args[1:]
	var msg string
	switch sub {
	case "add-building":
		fs := a.flagSet("add-building")
		name := fs.String("name", "", "building name")
		address := fs.String("address", "", "street address")
		if err := parse(fs, rest); err != nil {
			return err
		}
		msg, err = client.AddBuilding(ctx, models.NewBuildingRequest{Name: *name, Address: *address})

	case "add-room":
		fs := a.flagSet("add-room")
		building := fs.Int64("building", 0, "building id")
		roomType := fs.String("type", "", "room type, e.g. Single")
		price := fs.String("price", "", "price per month, e.g. 900.00")
		capacity := fs.Int("capacity", 1, "max occupancy")
		available := fs.Bool("available", true, "open for booking")
		if err := parse(fs, rest); err != nil {
			return err
		}
		amount, perr := models.ParseMoney(*price)
		if perr != nil {
			return fmt.Errorf("%w: %w", errUsage, perr)
		}
		msg, err = client.AddRoom(ctx, models.NewRoomRequest{
			BuildingID:    *building,
			RoomType:      *roomType,
			PricePerMonth: amount,
			MaxOccupancy:  *capacity,
			Availability:  models.Flag(*available),
		})

	case "set-availability":
		fs := a.flagSet("set-availability")
		room := fs.Int64("room", 0, "room id")
		available := fs.Bool("available", true, "open for booking")
		if err := parse(fs, rest); err != nil {
			return err
		}
		msg, err = client.UpdateRoomAvailability(ctx, *room, *available)

	default:
		return fmt.Errorf("%w: unknown admin command %q", errUsage, sub)
	}

	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}
