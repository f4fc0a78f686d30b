// Package basestation formats decoded Mode S/ADS-B messages as BaseStation
// (SBS-1) CSV lines, the wire format consumed by tools such as
// Virtual Radar Server and PlanePlotter.
package basestation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/adsb"
	"go1090/internal/logging"
)

// BaseStation message types
const (
	SEL = "SEL" // Selection Change
	ID  = "ID"  // New ID
	AIR = "AIR" // New Aircraft
	STA = "STA" // Status Change
	CLK = "CLK" // Click
	MSG = "MSG" // Transmission
)

// BaseStation transmission types
const (
	TransmissionES_ID_CAT       = 1 // Extended Squitter Aircraft ID and Category
	TransmissionES_SURFACE      = 2 // Extended Squitter Surface Position
	TransmissionES_AIRBORNE     = 3 // Extended Squitter Airborne Position
	TransmissionES_VELOCITY     = 4 // Extended Squitter Airborne Velocity
	TransmissionSURVEILLANCE    = 5 // Surveillance Alt, Squawk change
	TransmissionSURVEILLANCE_ID = 6 // Surveillance ID change
	TransmissionAIR_TO_AIR      = 7 // Air-to-Air Message
	TransmissionALL_CALL        = 8 // All Call Reply
)

// Message represents a BaseStation format message
type Message struct {
	MessageType      string
	TransmissionType int
	SessionID        int
	AircraftID       int
	HexIdent         string
	FlightID         int
	DateGenerated    time.Time
	TimeGenerated    time.Time
	DateLogged       time.Time
	TimeLogged       time.Time
	Callsign         string
	Altitude         string
	GroundSpeed      string
	Track            string
	Latitude         string
	Longitude        string
	VerticalRate     string
	Squawk           string
	Alert            string
	Emergency        string
	SPI              string
	IsOnGround       string
}

// Writer writes decoded messages in BaseStation format
type Writer struct {
	logRotator *logging.LogRotator
	logger     *logrus.Logger
	sessionID  int
	aircraftID int
}

// NewWriter creates a new BaseStation writer
func NewWriter(logRotator *logging.LogRotator, logger *logrus.Logger) *Writer {
	return &Writer{
		logRotator: logRotator,
		logger:     logger,
		sessionID:  1,
		aircraftID: 1,
	}
}

// Fix is the resolved lat/lon to attach to a position message, supplied by
// the caller's position.Tracker; callers pass haveFix=false to WriteMessage
// when no fix is available yet (e.g. only one CPR frame seen so far).
type Fix struct {
	Latitude, Longitude float64
}

// WriteMessage formats msg as a BaseStation CSV line and appends it to the
// current rotated log file. fix is consulted only for DF17/18 position
// message types; pass a zero Fix for every other case.
func (w *Writer) WriteMessage(msg *adsb.DecodedMessage, fix Fix, haveFix bool) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}

	baseMsg := w.convertMessage(msg, fix, haveFix)
	if baseMsg == nil {
		return nil
	}

	csvLine := w.formatCSV(baseMsg)

	writer, err := w.logRotator.GetWriter()
	if err != nil {
		return fmt.Errorf("failed to get log writer: %w", err)
	}

	if _, err := writer.Write([]byte(csvLine + "\n")); err != nil {
		return fmt.Errorf("failed to write to log: %w", err)
	}

	return nil
}

// convertMessage maps a decoded Mode S message onto the BaseStation
// transmission-type taxonomy. Messages whose DF/type carries no
// BaseStation equivalent return nil.
func (w *Writer) convertMessage(msg *adsb.DecodedMessage, fix Fix, haveFix bool) *Message {
	now := time.Now()

	baseMsg := &Message{
		MessageType:   MSG,
		SessionID:     w.sessionID,
		AircraftID:    w.aircraftID,
		FlightID:      w.aircraftID,
		DateGenerated: now,
		TimeGenerated: now,
		DateLogged:    now,
		TimeLogged:    now,
	}

	if msg.ICAO != 0 {
		baseMsg.HexIdent = fmt.Sprintf("%06X", msg.ICAO)
	}

	switch msg.DF {
	case 4, 5, 20, 21:
		baseMsg.TransmissionType = TransmissionSURVEILLANCE

		if msg.DF == 4 || msg.DF == 20 {
			if msg.Altitude != 0 {
				baseMsg.Altitude = strconv.Itoa(msg.Altitude)
			}
		}
		if msg.DF == 5 || msg.DF == 21 {
			if msg.Identity != 0 {
				baseMsg.Squawk = fmt.Sprintf("%04d", msg.Identity)
			}
		}
		return baseMsg

	case 11:
		baseMsg.TransmissionType = TransmissionALL_CALL
		return baseMsg

	case 17, 18:
		switch {
		case msg.METype >= 1 && msg.METype <= 4:
			baseMsg.TransmissionType = TransmissionES_ID_CAT
			baseMsg.Callsign = strings.TrimSpace(msg.Flight)

		case msg.METype >= 5 && msg.METype <= 8:
			baseMsg.TransmissionType = TransmissionES_SURFACE
			baseMsg.IsOnGround = "1"
			if haveFix {
				baseMsg.Latitude = fmt.Sprintf("%.6f", fix.Latitude)
				baseMsg.Longitude = fmt.Sprintf("%.6f", fix.Longitude)
			}

		case msg.METype >= 9 && msg.METype <= 18:
			baseMsg.TransmissionType = TransmissionES_AIRBORNE
			if msg.Altitude != 0 {
				baseMsg.Altitude = strconv.Itoa(msg.Altitude)
			}
			if haveFix {
				baseMsg.Latitude = fmt.Sprintf("%.6f", fix.Latitude)
				baseMsg.Longitude = fmt.Sprintf("%.6f", fix.Longitude)
			}

		case msg.METype == 19:
			baseMsg.TransmissionType = TransmissionES_VELOCITY
			if msg.MESub == 1 || msg.MESub == 2 {
				speed, track := groundSpeedAndTrack(msg)
				if speed > 0 {
					baseMsg.GroundSpeed = fmt.Sprintf("%d", speed)
				}
				if speed > 0 {
					baseMsg.Track = fmt.Sprintf("%.1f", track)
				}
			} else if msg.HeadingIsValid {
				baseMsg.Track = fmt.Sprintf("%.1f", msg.Heading)
			}
			if msg.VertRate != 0 {
				vrate := msg.VertRate
				if msg.VertRateSign == 1 {
					vrate = -vrate
				}
				baseMsg.VerticalRate = strconv.Itoa(vrate)
			}

		default:
			return nil
		}
		return baseMsg
	}

	return nil
}

// groundSpeedAndTrack derives the BaseStation ground-speed (knots) and
// track (degrees) fields from a ground-velocity ME payload's north/east
// component pair.
func groundSpeedAndTrack(msg *adsb.DecodedMessage) (int, float64) {
	ew := float64(msg.EWVelocity)
	if msg.EWDir == 1 {
		ew = -ew
	}
	ns := float64(msg.NSVelocity)
	if msg.NSDir == 1 {
		ns = -ns
	}

	if ew == 0 && ns == 0 {
		return 0, 0
	}

	speed := int(math.Hypot(ew, ns))
	track := math.Atan2(ew, ns) * 180.0 / math.Pi
	if track < 0 {
		track += 360
	}
	return speed, track
}

// formatCSV formats a BaseStation message as a 22-field CSV line.
func (w *Writer) formatCSV(msg *Message) string {
	fields := []string{
		msg.MessageType,
		strconv.Itoa(msg.TransmissionType),
		strconv.Itoa(msg.SessionID),
		strconv.Itoa(msg.AircraftID),
		msg.HexIdent,
		strconv.Itoa(msg.FlightID),
		msg.DateGenerated.Format("2006/01/02"),
		msg.TimeGenerated.Format("15:04:05.000"),
		msg.DateLogged.Format("2006/01/02"),
		msg.TimeLogged.Format("15:04:05.000"),
		msg.Callsign,
		msg.Altitude,
		msg.GroundSpeed,
		msg.Track,
		msg.Latitude,
		msg.Longitude,
		msg.VerticalRate,
		msg.Squawk,
		msg.Alert,
		msg.Emergency,
		msg.SPI,
		msg.IsOnGround,
	}

	return strings.Join(fields, ",")
}
