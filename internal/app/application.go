package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/adsb"
	"go1090/internal/basestation"
	"go1090/internal/beast"
	"go1090/internal/logging"
	"go1090/internal/position"
	"go1090/internal/rtlsdr"
)

// Application wires RTL-SDR acquisition, the adsb.Decoder pipeline, CPR
// position resolution and BaseStation output into one running process.
type Application struct {
	config      Config
	logger      *logrus.Logger
	rtlsdr      *rtlsdr.RTLSDRDevice
	decoder     *adsb.Decoder
	tracker     *position.Tracker
	baseStation *basestation.Writer
	logRotator  *logging.LogRotator
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	verbose     bool
}

// NewApplication creates a new application instance
func NewApplication(config Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	logger := logrus.New()
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Application{
		config:  config,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		verbose: config.Verbose,
	}
}

// Start starts the application
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting ADS-B Decoder")

	if err := app.initializeComponents(); err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.run(); err != nil {
		app.logger.WithError(err).Error("Application error")
		return err
	}

	<-sigChan
	app.logger.Info("Received shutdown signal")
	app.shutdown()

	return nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	var err error

	if app.config.BeastAddr == "" {
		app.rtlsdr, err = rtlsdr.NewRTLSDRDevice(app.config.DeviceIndex)
		if err != nil {
			return fmt.Errorf("failed to initialize RTL-SDR: %w", err)
		}

		if err := app.rtlsdr.Configure(app.config.Frequency, app.config.SampleRate, app.config.Gain); err != nil {
			return fmt.Errorf("failed to configure RTL-SDR: %w", err)
		}
	}

	app.decoder = adsb.NewDecoder(app.config.FixErrors, app.config.Aggressive, app.config.CheckCRC)
	app.tracker = position.NewTracker(app.logger, app.verbose)

	app.logRotator, err = logging.NewLogRotator(app.config.LogDir, app.config.LogRotateUTC, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize log rotator: %w", err)
	}

	app.baseStation = basestation.NewWriter(app.logRotator, app.logger)

	return nil
}

// run runs the main application loop
func (app *Application) run() error {
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.logRotator.Start(app.ctx)
	}()

	if app.config.BeastAddr != "" {
		app.logger.WithField("addr", app.config.BeastAddr).Info("Reading Beast-protocol frames over TCP")
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.runBeastSource()
		}()
	} else {
		app.logger.Info("Starting RTL-SDR capture and ADS-B demodulation")
		dataChan := make(chan []byte, 100)

		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			if err := app.rtlsdr.StartCapture(app.ctx, dataChan); err != nil {
				app.logger.WithError(err).Error("RTL-SDR capture failed")
			}
		}()

		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.processIQData(dataChan)
		}()
	}

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.reportStatistics()
	}()

	app.logger.Info("All components started successfully")
	return nil
}

// runBeastSource dials the configured Beast TCP feed. The beast.Decoder
// itself runs every Mode S payload through the shared core decoder
// (CRC validation/repair, ICAO-cache authentication, DF dispatch), per
// §4.8: Beast hardware already performed PPM demodulation, so
// MagnitudeMap/PreambleScanner/BitSlicer are skipped entirely. Reconnects
// with a fixed backoff if the feed drops.
func (app *Application) runBeastSource() {
	beastDecoder := beast.NewDecoder(app.logger, app.decoder)
	buf := make([]byte, 4096)

	for {
		select {
		case <-app.ctx.Done():
			return
		default:
		}

		conn, err := net.Dial("tcp", app.config.BeastAddr)
		if err != nil {
			app.logger.WithError(err).Warn("Beast feed dial failed, retrying")
			select {
			case <-app.ctx.Done():
				return
			case <-time.After(5 * time.Second):
				continue
			}
		}

		app.readBeastConn(conn, beastDecoder, buf)
		conn.Close()
	}
}

func (app *Application) readBeastConn(conn net.Conn, beastDecoder *beast.Decoder, buf []byte) {
	for {
		select {
		case <-app.ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(time.Second))
		n, err := conn.Read(buf)
		if n > 0 {
			messages, decErr := beastDecoder.Decode(buf[:n])
			if decErr != nil {
				app.logger.WithError(decErr).Debug("Beast decode error")
			}
			for _, bm := range messages {
				if !bm.IsValid() || bm.Decoded == nil {
					continue
				}
				app.handleMessage(bm.Decoded)
			}
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			app.logger.WithError(err).Warn("Beast feed connection closed")
			return
		}
	}
}

// carryoverSamples is the magnitude sample count retained across Detect
// calls (§6's Buffer Continuation contract) so a preamble straddling a
// chunk boundary is never missed: a preamble can start up to one full long
// message before the end of a buffer and still need its trailing samples
// from the next one.
const carryoverSamples = adsb.PreambleSamples + adsb.LongMsgBits*2 - 1

// processIQData processes incoming I/Q data from RTL-SDR: computes sample
// magnitudes, runs the decoder pipeline, and writes any surfaced message to
// BaseStation output.
func (app *Application) processIQData(dataChan <-chan []byte) {
	dataPackets := 0
	var carry []uint16

	for {
		select {
		case <-app.ctx.Done():
			app.logger.Info("I/Q data processing stopped")
			return
		case data := <-dataChan:
			if data == nil {
				continue
			}

			dataPackets++
			mag := adsb.ComputeMagnitude(data)
			buf := append(carry, mag...)

			nowSecs := uint32(time.Now().Unix())
			app.decoder.Detect(buf, nowSecs, app.handleMessage)

			if len(buf) > carryoverSamples {
				carry = append(carry[:0], buf[len(buf)-carryoverSamples:]...)
			} else {
				carry = append(carry[:0], buf...)
			}

			if dataPackets%100 == 0 {
				app.logger.WithFields(logrus.Fields{
					"packets":        dataPackets,
					"magnitude_size": len(mag),
				}).Debug("I/Q data stats")
			}
		}
	}
}

// handleMessage is the Decoder.Detect sink: it resolves CPR position (for
// airborne/surface position ME types) and appends a BaseStation line.
func (app *Application) handleMessage(msg *adsb.DecodedMessage) {
	var fix basestation.Fix
	var haveFix bool

	if msg.DF == 17 || msg.DF == 18 {
		if (msg.METype >= 5 && msg.METype <= 8) || (msg.METype >= 9 && msg.METype <= 18) {
			if f, ok := app.tracker.Resolve(msg.ICAO, msg.FFlag, msg.RawLatitude, msg.RawLongitude, time.Now()); ok {
				fix = basestation.Fix{Latitude: f.Latitude, Longitude: f.Longitude}
				haveFix = true
			}
		}
	}

	if err := app.baseStation.WriteMessage(msg, fix, haveFix); err != nil {
		app.logger.WithError(err).Debug("Failed to write BaseStation message")
		return
	}

	if app.verbose {
		app.logger.WithFields(logrus.Fields{
			"df":      msg.DF,
			"icao":    fmt.Sprintf("%06X", msg.ICAO),
			"crc_ok":  msg.CRCOk,
			"err_bit": msg.ErrorBit,
		}).Debug("Decoded message")
	}
}

// reportStatistics reports processing statistics periodically
func (app *Application) reportStatistics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			stats := app.decoder.Stats()
			successRate := 0.0
			if stats.Preambles > 0 {
				successRate = float64(stats.Valid) / float64(stats.Preambles) * 100
			}
			app.logger.WithFields(logrus.Fields{
				"preambles_found":    stats.Preambles,
				"valid_messages":     stats.Valid,
				"corrected_messages": stats.Corrected,
				"single_bit_errors":  stats.SingleBit,
				"two_bit_errors":     stats.TwoBit,
				"discarded":          stats.Discarded,
				"success_rate":       fmt.Sprintf("%.2f%%", successRate),
			}).Info("ADS-B processing statistics")
		}
	}
}

// shutdown gracefully shuts down the application
func (app *Application) shutdown() {
	app.logger.Info("Shutting down application")
	app.cancel()

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		app.logger.Info("All goroutines finished")
	case <-time.After(5 * time.Second):
		app.logger.Warn("Shutdown timeout, forcing exit")
	}

	if app.rtlsdr != nil {
		app.rtlsdr.Close()
	}
	if app.logRotator != nil {
		app.logRotator.Close()
	}

	app.logger.Info("Shutdown completed")
}
