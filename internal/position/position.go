// Package position resolves the CPR (Compact Position Reporting) lat/lon
// fields carried by airborne-position extended squitters into absolute
// coordinates. It is kept separate from internal/adsb, whose core decoder
// treats RawLatitude/RawLongitude as opaque 17-bit fields and never
// resolves them — see that package's CPR non-goal.
package position

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CPR field widths, used by callers that need to validate a raw field
// range before handing it to Tracker.
const (
	CPRLatBits = 17
	CPRLonBits = 17
	cprMax     = 131072.0 // 2^17
)

// Frame is one airborne-position CPR observation: the raw encoded field
// plus which of the even/odd pair it is.
type Frame struct {
	LatCPR    uint32
	LonCPR    uint32
	FFlag     uint8
	Timestamp time.Time
}

// Fix is a resolved lat/lon, in degrees.
type Fix struct {
	Latitude  float64
	Longitude float64
	Timestamp time.Time
}

// aircraftTrack holds the CPR history needed to resolve one aircraft's
// position: its most recent even and odd frames, plus the last fix, used
// both as a single-frame decode reference and as a stale-data fallback.
type aircraftTrack struct {
	even *Frame
	odd  *Frame
	last *Fix
}

// Tracker resolves CPR positions across a population of aircraft,
// identified by ICAO address. It is safe for concurrent use by the
// decode goroutine and any reporting goroutine that reads fixes back out.
type Tracker struct {
	mu      sync.RWMutex
	tracks  map[uint32]*aircraftTrack
	logger  *logrus.Logger
	verbose bool

	// refLat/refLon seed single-frame decoding before any aircraft has
	// reported two frames to resolve a reference position from. Defaults
	// to the teacher's own deployment region (São Paulo) rather than an
	// arbitrary 0,0, since a 0,0 reference would put the ambiguous zone
	// over the Gulf of Guinea for most real traffic.
	refLat, refLon float64
}

// DefaultReferenceLatitude and DefaultReferenceLongitude seed single-frame
// CPR decoding before any two-frame fix has been established. São Paulo,
// matching the receiver siting the rest of this codebase was written for.
const (
	DefaultReferenceLatitude  = -23.5505
	DefaultReferenceLongitude = -46.6333
)

// NewTracker builds a Tracker seeded with the default reference position.
func NewTracker(logger *logrus.Logger, verbose bool) *Tracker {
	return &Tracker{
		tracks:  make(map[uint32]*aircraftTrack),
		logger:  logger,
		verbose: verbose,
		refLat:  DefaultReferenceLatitude,
		refLon:  DefaultReferenceLongitude,
	}
}

// SetReference overrides the single-frame decode reference position, e.g.
// once the receiver's own site coordinates are known.
func (t *Tracker) SetReference(lat, lon float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refLat = lat
	t.refLon = lon
}

// Resolve records a new CPR frame for icao and returns the best available
// fix: the globally-unambiguous two-frame decode when both an even and an
// odd frame are on hand, a locally-decoded single-frame fix otherwise, or
// the aircraft's last known fix if it is still recent (within 30s) and
// neither decode succeeds. Returns ok=false if no position can be produced.
func (t *Tracker) Resolve(icao uint32, fFlag uint8, latCPR, lonCPR uint32, now time.Time) (Fix, bool) {
	t.mu.Lock()
	track, exists := t.tracks[icao]
	if !exists {
		track = &aircraftTrack{}
		t.tracks[icao] = track
	}
	t.mu.Unlock()

	frame := &Frame{LatCPR: latCPR, LonCPR: lonCPR, FFlag: fFlag, Timestamp: now}
	if fFlag == 0 {
		track.even = frame
	} else {
		track.odd = frame
	}

	if track.even != nil && track.odd != nil {
		if lat, lon, ok := t.decodeBothFrames(track.even, track.odd); ok {
			fix := Fix{Latitude: lat, Longitude: lon, Timestamp: now}
			track.last = &fix
			if t.verbose {
				t.logger.Debugf("cpr resolve icao=%06X both-frame lat=%.6f lon=%.6f", icao, lat, lon)
			}
			return fix, true
		}
	}

	if lat, lon, ok := t.decodeSingleFrame(frame); ok {
		fix := Fix{Latitude: lat, Longitude: lon, Timestamp: now}
		track.last = &fix
		if t.verbose {
			t.logger.Debugf("cpr resolve icao=%06X single-frame lat=%.6f lon=%.6f", icao, lat, lon)
		}
		return fix, true
	}

	if track.last != nil && now.Sub(track.last.Timestamp) < 30*time.Second {
		if t.verbose {
			t.logger.Debugf("cpr resolve icao=%06X stale fallback lat=%.6f lon=%.6f", icao, track.last.Latitude, track.last.Longitude)
		}
		return *track.last, true
	}

	return Fix{}, false
}

func cprModInt(a, b int) int {
	res := a % b
	if res < 0 {
		res += b
	}
	return res
}

// decodeBothFrames resolves position globally from one even and one odd
// frame, per the standard CPR global-decode algorithm.
func (t *Tracker) decodeBothFrames(even, odd *Frame) (float64, float64, bool) {
	const airDlat0 = 360.0 / 60.0
	const airDlat1 = 360.0 / 59.0

	lat0 := float64(even.LatCPR)
	lat1 := float64(odd.LatCPR)
	lon0 := float64(even.LonCPR)
	lon1 := float64(odd.LonCPR)

	j := int(math.Floor(((59*lat0 - 60*lat1) / cprMax) + 0.5))

	rlat0 := airDlat0 * (float64(cprModInt(j, 60)) + lat0/cprMax)
	rlat1 := airDlat1 * (float64(cprModInt(j, 59)) + lat1/cprMax)

	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}

	if rlat0 < -90 || rlat0 > 90 || rlat1 < -90 || rlat1 > 90 {
		return 0, 0, false
	}

	if cprNLTable(rlat0) != cprNLTable(rlat1) {
		return 0, 0, false
	}

	var rlat, rlon float64
	if odd.Timestamp.After(even.Timestamp) {
		ni := cprNFunction(rlat1, 1)
		m := int(math.Floor((((lon0 * float64(cprNLTable(rlat1)-1)) -
			(lon1 * float64(cprNLTable(rlat1)))) / cprMax) + 0.5))
		rlon = cprDlonFunction(rlat1, 1) * (float64(cprModInt(m, ni)) + lon1/cprMax)
		rlat = rlat1
	} else {
		ni := cprNFunction(rlat0, 0)
		m := int(math.Floor((((lon0 * float64(cprNLTable(rlat0)-1)) -
			(lon1 * float64(cprNLTable(rlat0)))) / cprMax) + 0.5))
		rlon = cprDlonFunction(rlat0, 0) * (float64(cprModInt(m, ni)) + lon0/cprMax)
		rlat = rlat0
	}

	rlon -= math.Floor((rlon+180)/360) * 360
	return rlat, rlon, true
}

// decodeSingleFrame resolves position from a single frame using a
// reference position: the tracker's configured reference, or the most
// recent fix from any tracked aircraft within 5 minutes, whichever is
// more specific.
func (t *Tracker) decodeSingleFrame(frame *Frame) (float64, float64, bool) {
	refLat, refLon := t.referencePosition()

	lat := float64(frame.LatCPR)
	lon := float64(frame.LonCPR)

	airDlat := 360.0 / 60.0
	if frame.FFlag == 1 {
		airDlat = 360.0 / 59.0
	}

	j := int(math.Floor(refLat/airDlat + 0.5))
	rlat := airDlat * (float64(j) + lat/cprMax)

	if (rlat - refLat) > (airDlat / 2.0) {
		rlat -= airDlat
	} else if (rlat - refLat) < -(airDlat / 2.0) {
		rlat += airDlat
	}

	ni := cprNFunction(rlat, int(frame.FFlag))
	if ni <= 0 {
		ni = 1
	}

	dlon := 360.0 / float64(ni)
	m := int(math.Floor(refLon/dlon + 0.5))
	rlon := dlon * (float64(m) + lon/cprMax)

	if (rlon - refLon) > (dlon / 2.0) {
		rlon -= dlon
	} else if (rlon - refLon) < -(dlon / 2.0) {
		rlon += dlon
	}

	rlon -= math.Floor((rlon+180)/360) * 360

	if rlat < -90 || rlat > 90 {
		return 0, 0, false
	}
	return rlat, rlon, true
}

func (t *Tracker) referencePosition() (float64, float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var best *Fix
	for _, track := range t.tracks {
		if track.last != nil && time.Since(track.last.Timestamp) < 5*time.Minute {
			if best == nil || track.last.Timestamp.After(best.Timestamp) {
				best = track.last
			}
		}
	}
	if best != nil {
		return best.Latitude, best.Longitude
	}
	return t.refLat, t.refLon
}

// cprNFunction returns the number of longitude zones at lat for the given
// frame parity.
func cprNFunction(lat float64, fflag int) int {
	nl := cprNLTable(lat) - fflag
	if nl < 1 {
		nl = 1
	}
	return nl
}

// cprDlonFunction returns the longitude zone width at lat for the given
// frame parity.
func cprDlonFunction(lat float64, fflag int) float64 {
	return 360.0 / float64(cprNFunction(lat, fflag))
}

// cprNLTable returns the number of longitude zones (NL) for a latitude,
// via the standard CPR NL lookup table.
func cprNLTable(lat float64) int {
	absLat := math.Abs(lat)

	switch {
	case absLat < 10.47047130:
		return 59
	case absLat < 14.82817437:
		return 58
	case absLat < 18.18626357:
		return 57
	case absLat < 21.02939493:
		return 56
	case absLat < 23.54504487:
		return 55
	case absLat < 25.82924707:
		return 54
	case absLat < 27.93898710:
		return 53
	case absLat < 29.91135686:
		return 52
	case absLat < 31.77209708:
		return 51
	case absLat < 33.53993436:
		return 50
	case absLat < 35.22899598:
		return 49
	case absLat < 36.85025108:
		return 48
	case absLat < 38.41241892:
		return 47
	case absLat < 39.92256684:
		return 46
	case absLat < 41.38651832:
		return 45
	case absLat < 42.80914012:
		return 44
	case absLat < 44.19454951:
		return 43
	case absLat < 45.54626723:
		return 42
	case absLat < 46.86733252:
		return 41
	case absLat < 48.16039128:
		return 40
	case absLat < 49.42776439:
		return 39
	case absLat < 50.67150166:
		return 38
	case absLat < 51.89342469:
		return 37
	case absLat < 53.09516153:
		return 36
	case absLat < 54.27817472:
		return 35
	case absLat < 55.44378444:
		return 34
	case absLat < 56.59318756:
		return 33
	case absLat < 57.72747354:
		return 32
	case absLat < 58.84763776:
		return 31
	case absLat < 59.95459277:
		return 30
	case absLat < 61.04917774:
		return 29
	case absLat < 62.13216659:
		return 28
	case absLat < 63.20427479:
		return 27
	case absLat < 64.26616523:
		return 26
	case absLat < 65.31845310:
		return 25
	case absLat < 66.36171008:
		return 24
	case absLat < 67.39646774:
		return 23
	case absLat < 68.42322022:
		return 22
	case absLat < 69.44242631:
		return 21
	case absLat < 70.45451075:
		return 20
	case absLat < 71.45986473:
		return 19
	case absLat < 72.45884545:
		return 18
	case absLat < 73.45177442:
		return 17
	case absLat < 74.43893416:
		return 16
	case absLat < 75.42056257:
		return 15
	case absLat < 76.39684391:
		return 14
	case absLat < 77.36789461:
		return 13
	case absLat < 78.33374083:
		return 12
	case absLat < 79.29428225:
		return 11
	case absLat < 80.24923213:
		return 10
	case absLat < 81.19801349:
		return 9
	case absLat < 82.13956981:
		return 8
	case absLat < 83.07199445:
		return 7
	case absLat < 83.99173563:
		return 6
	case absLat < 84.89166191:
		return 5
	case absLat < 85.75541621:
		return 4
	case absLat < 86.53536998:
		return 3
	case absLat < 87.00000000:
		return 2
	default:
		return 1
	}
}
