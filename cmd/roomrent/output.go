package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"roomrenting/internal/models"
	"roomrenting/internal/pricing"
	"roomrenting/internal/session"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func yesNo(f models.Flag) string {
	if f {
		return "yes"
	}
	return "no"
}

func printRooms(w io.Writer, rooms []models.Room) {
	if len(rooms) == 0 {
		fmt.Fprintln(w, "No rooms found")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTYPE\tBUILDING\tADDRESS\tPRICE/MONTH\tMAX\tAVAILABLE")
	for _, r := range rooms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.RoomID, r.RoomType, r.BuildingName, r.BuildingAddress, r.PricePerMonth, r.MaxOccupancy, yesNo(r.Availability))
	}
	_ = tw.Flush()
}

func printBuildings(w io.Writer, buildings []models.Building) {
	if len(buildings) == 0 {
		fmt.Fprintln(w, "No buildings found")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tADDRESS")
	for _, b := range buildings {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", b.BuildingID, b.Name, b.Address)
	}
	_ = tw.Flush()
}

func printBookings(w io.Writer, bookings []models.Booking) {
	if len(bookings) == 0 {
		fmt.Fprintln(w, "No bookings found")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tROOM\tBUILDING\tTYPE\tCHECK-IN\tCHECK-OUT\tTOTAL\tPAID\tPAYMENT\tSTATUS")
	for _, b := range bookings {
		payment := b.PaymentStatus
		if payment == "" {
			payment = "-"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.BookingID, b.RoomID, b.BuildingName, b.RoomType, b.CheckInDate, b.CheckOutDate,
			b.TotalAmount, b.PaymentAmount, payment, b.Status)
	}
	_ = tw.Flush()
}

func printQuote(w io.Writer, room models.Room, res pricing.Result) {
	fmt.Fprintf(w, "Room %d (%s, %s): %d day(s) at %s/day = %s\n",
		room.RoomID, room.RoomType, room.BuildingName, res.Days, res.PricePerDay, res.Total)
}

func printSession(w io.Writer, s *session.Session) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Name\t%s\n", s.Name)
	fmt.Fprintf(tw, "Email\t%s\n", s.Email)
	fmt.Fprintf(tw, "Phone\t%s\n", s.Phone)
	fmt.Fprintf(tw, "Role\t%s\n", s.Role)
	fmt.Fprintf(tw, "User ID\t%d\n", s.UserID)
	if !s.ExpiresAt.IsZero() {
		fmt.Fprintf(tw, "Expires\t%s\n", s.ExpiresAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}
