package nmea

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func requireFieldError(t *testing.T, err error, field string, want error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, want), "got %v, want %v", err, want)
	var fe *FieldError
	require.True(t, errors.As(err, &fe), "got %T", err)
	assert.Equal(t, field, fe.Field)
}

func TestDecodeGGA(t *testing.T) {
	s, err := Decode("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\r\n")
	require.NoError(t, err)
	gga, ok := s.(*GGASentence)
	require.True(t, ok, "got %T", s)

	assert.Equal(t, Header{Talker: GP, Identifier: GGA}, gga.SentenceHeader())
	assert.Equal(t, &TimeOfDay{Hour: 12, Minute: 35, Second: 19}, gga.Time)
	require.NotNil(t, gga.Latitude)
	assert.InDelta(t, 48.1173, *gga.Latitude, 1e-4)
	require.NotNil(t, gga.Longitude)
	assert.InDelta(t, 11.516666, *gga.Longitude, 1e-5)
	require.NotNil(t, gga.Quality)
	assert.Equal(t, GPSFix, *gga.Quality)
	assert.Equal(t, intp(8), gga.Satellites)
	assert.InDelta(t, 0.9, *gga.HDOP, 1e-9)
	assert.InDelta(t, 545.4, *gga.Altitude, 1e-9)
	assert.InDelta(t, 46.9, *gga.GeoidSeparation, 1e-9)
	assert.Nil(t, gga.DifferentialAge)
	assert.Nil(t, gga.StationID)
}

func TestDecodeGGAWithoutFix(t *testing.T) {
	s, err := Decode("$GPGGA,,,,,,0,00,99.99,,,,,,*48")
	require.NoError(t, err)
	gga := s.(*GGASentence)
	assert.Nil(t, gga.Time)
	assert.Nil(t, gga.Latitude)
	assert.Nil(t, gga.Longitude)
	assert.Equal(t, InvalidFix, *gga.Quality)
	assert.Equal(t, intp(0), gga.Satellites)
	assert.Nil(t, gga.Altitude)
}

func TestDecodeGGAWithoutDifferentialFields(t *testing.T) {
	s, err := Decode(nmeaLine("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M"))
	require.NoError(t, err)
	gga := s.(*GGASentence)
	assert.InDelta(t, 46.9, *gga.GeoidSeparation, 1e-9)
	assert.Nil(t, gga.DifferentialAge)
	assert.Nil(t, gga.StationID)

	s, err = Decode(nmeaLine("GPGGA,123519,4807.038,N,01131.000,E,2,08,0.9,545.4,M,46.9,M,3.5,0120"))
	require.NoError(t, err)
	gga = s.(*GGASentence)
	require.NotNil(t, gga.DifferentialAge)
	assert.InDelta(t, 3.5, *gga.DifferentialAge, 1e-9)
	assert.Equal(t, intp(120), gga.StationID)
}

func TestDecodeGGAErrors(t *testing.T) {
	_, err := Decode("$GPGGA,123519,4807.038,X,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*51")
	requireFieldError(t, err, "latitude", ErrInvalidFieldValue)

	_, err = Decode("$GPGGA,123519,4807.038,N,01131.000,E,9,08,0.9,545.4,M,46.9,M,,*4F")
	requireFieldError(t, err, "quality", ErrInvalidFieldValue)

	_, err = Decode(nmeaLine("GPGGA,123519,4807.038,N,01131.000,E,1,08"))
	requireFieldError(t, err, "hdop", ErrMissingDelimiter)

	_, err = Decode(nmeaLine("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,F,46.9,M,,"))
	requireFieldError(t, err, "altitude_unit", ErrInvalidFieldValue)
}

func TestDecodeGSA(t *testing.T) {
	s, err := Decode("$GNGSA,A,3,05,07,13,14,15,17,19,23,24,,,,1.0,0.7,0.7,1*38")
	require.NoError(t, err)
	gsa := s.(*GSASentence)
	assert.Equal(t, GN, gsa.Talker)
	assert.Equal(t, Automatic, *gsa.SelectionMode)
	assert.Equal(t, Fix3D, *gsa.Mode)
	assert.Equal(t, []int{5, 7, 13, 14, 15, 17, 19, 23, 24}, gsa.SatelliteIDs)
	assert.InDelta(t, 1.0, *gsa.PDOP, 1e-9)
	assert.InDelta(t, 0.7, *gsa.HDOP, 1e-9)
	assert.InDelta(t, 0.7, *gsa.VDOP, 1e-9)
	require.NotNil(t, gsa.System)
	assert.Equal(t, SystemID(1), *gsa.System)

	_, err = Decode("$GPGSA,X,3,05,07,,,,,,,,,,,1.0,0.7,0.7*28")
	requireFieldError(t, err, "selection_mode", ErrInvalidFieldValue)

	s, err = Decode(nmeaLine("GPGSA,M,1,,,,,,,,,,,,,,,"))
	require.NoError(t, err)
	gsa = s.(*GSASentence)
	assert.Equal(t, Manual, *gsa.SelectionMode)
	assert.Empty(t, gsa.SatelliteIDs)
	assert.Nil(t, gsa.System)
}

func TestDecodeGSVGroup(t *testing.T) {
	s, err := Decode(strings.Join([]string{
		"$GPGSV,3,1,10,23,38,230,44,29,71,156,47,07,29,116,41*42",
		"$GPGSV,3,2,10,08,54,069,45,10,31,197,44,18,12,321,38*43",
		"$GPGSV,3,3,10,21,12,051,29,26,04,330,,27,06,286,37,16,22,097,33*75",
	}, "\r\n"))
	require.NoError(t, err)
	gsv := s.(*GSVSentence)
	assert.Equal(t, 3, gsv.Lines)
	assert.Equal(t, intp(10), gsv.SatellitesInView)
	require.Len(t, gsv.Satellites, 10)

	var ids []int
	for _, sat := range gsv.Satellites {
		ids = append(ids, sat.ID)
	}
	assert.Equal(t, []int{23, 29, 7, 8, 10, 18, 21, 26, 27, 16}, ids)
	assert.Equal(t, Satellite{ID: 23, Elevation: intp(38), Azimuth: intp(230), SNR: intp(44)}, gsv.Satellites[0])
	assert.Nil(t, gsv.Satellites[7].SNR)
	assert.Nil(t, gsv.Signal)
}

func TestDecodeGSVSingleLine(t *testing.T) {
	s, err := Decode("$GPGSV,1,1,04,01,40,083,46,02,17,308,41,12,07,344,39,14,22,228,45*7A")
	require.NoError(t, err)
	gsv := s.(*GSVSentence)
	assert.Equal(t, 1, gsv.Lines)
	require.Len(t, gsv.Satellites, 4)
	assert.Equal(t, 14, gsv.Satellites[3].ID)

	s, err = Decode("$GPGSV,1,1,00*79")
	require.NoError(t, err)
	gsv = s.(*GSVSentence)
	assert.Equal(t, intp(0), gsv.SatellitesInView)
	assert.Empty(t, gsv.Satellites)

	s, err = Decode("$GPGSV,1,1,02,01,40,083,46,02,17,308,,1*65")
	require.NoError(t, err)
	gsv = s.(*GSVSentence)
	require.Len(t, gsv.Satellites, 2)
	assert.Nil(t, gsv.Satellites[1].SNR)
	assert.Equal(t, intp(1), gsv.Signal)

	_, err = Decode("$GPGSV,3,1,10,23,38,230,44,29,71,156,47,07,29,116,4X*2B")
	requireFieldError(t, err, "snr", ErrInvalidFieldValue)
}

func TestDecodeLinesRejectsMixedGroups(t *testing.T) {
	_, err := DecodeLines([]string{
		"$GPGSV,2,1,08,01,40,083,46,02,17,308,41,12,07,344,39,14,22,228,45*75",
		"$GLGSV,1,1,02,65,40,083,46,66,17,308,41*61",
	})
	assert.True(t, errors.Is(err, ErrInvalidFieldValue))

	_, err = DecodeLines([]string{
		"$GPZDA,201530.00,04,07,2002,00,00*60",
		"$GPZDA,201530.00,04,07,2002,00,00*60",
	})
	assert.True(t, errors.Is(err, ErrInvalidFieldValue))

	_, err = DecodeLines([]string{"", "  "})
	assert.True(t, errors.Is(err, ErrMalformedChecksum))
}

func TestExpectedLines(t *testing.T) {
	for n, want := range map[int]int{0: 1, 1: 1, 4: 1, 5: 2, 8: 2, 10: 3, 12: 3, 13: 4} {
		assert.Equal(t, want, ExpectedLines(n), "satellites %d", n)
	}
}

func TestParseGSVHeader(t *testing.T) {
	h, err := ParseGSVHeader("$GPGSV,3,2,10,08,54,069,45,10,31,197,44,18,12,321,38*43")
	require.NoError(t, err)
	assert.Equal(t, GSVHeader{Total: 3, Number: 2, SatellitesInView: 10}, h)

	for _, line := range []string{
		"$GPGSV,2,3,08*00",
		"$GPGSV,0,0,00*00",
		"$GPGSV,,1,00*00",
		"$GPGSV,a,1,00*00",
	} {
		_, err := ParseGSVHeader(line)
		assert.Error(t, err, line)
	}
}

func TestDecodeRMC(t *testing.T) {
	s, err := Decode("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	require.NoError(t, err)
	rmc := s.(*RMCSentence)
	assert.Equal(t, StatusValid, *rmc.Status)
	assert.InDelta(t, 22.4, *rmc.SpeedKnots, 1e-9)
	assert.InDelta(t, 84.4, *rmc.Course, 1e-9)
	assert.Equal(t, &Date{Year: 2094, Month: time.March, Day: 23}, rmc.Date)
	require.NotNil(t, rmc.MagneticVariation)
	assert.InDelta(t, -3.1, *rmc.MagneticVariation, 1e-9)
	assert.Nil(t, rmc.Mode)
	assert.Nil(t, rmc.NavStatus)

	ts, ok := rmc.Timestamp()
	require.True(t, ok)
	assert.Equal(t, time.Date(2094, time.March, 23, 12, 35, 19, 0, time.UTC), ts)
}

func TestDecodeRMCVersion410(t *testing.T) {
	s, err := Decode("$GNRMC,083559.00,A,4717.11437,N,00833.91522,E,0.004,77.52,091202,,,A,V*33")
	require.NoError(t, err)
	rmc := s.(*RMCSentence)
	assert.Equal(t, GN, rmc.Talker)
	assert.Nil(t, rmc.MagneticVariation)
	assert.Equal(t, Autonomous, *rmc.Mode)
	assert.Equal(t, NavStatus('V'), *rmc.NavStatus)

	s, err = Decode("$GPRMC,162254.00,A,3723.02837,N,12159.39853,W,0.820,188.36,110706,,,A*74")
	require.NoError(t, err)
	rmc = s.(*RMCSentence)
	assert.InDelta(t, -(121 + 59.39853/60), *rmc.Longitude, 1e-9)
	assert.Equal(t, &TimeOfDay{Hour: 16, Minute: 22, Second: 54}, rmc.Time)
}

func TestDecodeRMCErrors(t *testing.T) {
	_, err := Decode("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,310294,003.1,W*68")
	requireFieldError(t, err, "date", ErrInvalidFieldValue)

	_, err = Decode("$GPRMC,256019,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6E")
	requireFieldError(t, err, "time", ErrInvalidFieldValue)

	_, err = Decode(nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,Q"))
	requireFieldError(t, err, "magnetic_variation_direction", ErrInvalidFieldValue)

	_, err = Decode(nmeaLine("GPRMC,123519,X,4807.038,N,01131.000,E,022.4,084.4,230394,,"))
	requireFieldError(t, err, "status", ErrInvalidFieldValue)
}

func TestDecodeGLL(t *testing.T) {
	s, err := Decode("$GPGLL,4916.45,N,12311.12,W,225444,A,A*5C")
	require.NoError(t, err)
	gll := s.(*GLLSentence)
	assert.InDelta(t, 49.274166, *gll.Latitude, 1e-5)
	assert.InDelta(t, -123.185333, *gll.Longitude, 1e-5)
	assert.Equal(t, &TimeOfDay{Hour: 22, Minute: 54, Second: 44}, gll.Time)
	assert.Equal(t, StatusValid, *gll.Status)
	assert.Equal(t, Autonomous, *gll.Mode)

	s, err = Decode("$GPGLL,4916.45,N,12311.12,W,225444,A*31")
	require.NoError(t, err)
	assert.Nil(t, s.(*GLLSentence).Mode)

	_, err = Decode("$GPGLL,4916.45,N,12311.12,W,225444,A,Z*47")
	requireFieldError(t, err, "mode", ErrInvalidFieldValue)
}

func TestDecodeGNS(t *testing.T) {
	s, err := Decode("$GNGNS,014035.00,4332.69262,S,17235.48549,E,RR,13,0.9,25.63,11.24,,,V*0A")
	require.NoError(t, err)
	gns := s.(*GNSSentence)
	assert.InDelta(t, -(43 + 32.69262/60), *gns.Latitude, 1e-9)
	assert.InDelta(t, 172+35.48549/60, *gns.Longitude, 1e-9)
	assert.Equal(t, []FAAMode{RTK, RTK}, gns.Modes)
	assert.Equal(t, intp(13), gns.Satellites)
	assert.InDelta(t, 11.24, *gns.GeoidSeparation, 1e-9)
	assert.Nil(t, gns.DifferentialAge)
	assert.Equal(t, NavStatus('V'), *gns.NavStatus)

	_, err = Decode(nmeaLine("GNGNS,014035.00,4332.69262,S,17235.48549,E,RZ,13,0.9,25.63,11.24,,"))
	requireFieldError(t, err, "mode", ErrInvalidFieldValue)
}

func TestDecodeGRS(t *testing.T) {
	s, err := Decode("$GPGRS,220320.0,0,-0.8,-0.2,-0.1,-0.2,0.8,0.6,,,,,,,1,1*79")
	require.NoError(t, err)
	grs := s.(*GRSSentence)
	assert.Equal(t, ResidualMode(0), *grs.Mode)
	assert.Equal(t, []float64{-0.8, -0.2, -0.1, -0.2, 0.8, 0.6}, grs.Residuals)
	assert.Equal(t, SystemID(1), *grs.System)
	assert.Equal(t, intp(1), grs.Signal)
}

func TestDecodeGST(t *testing.T) {
	s, err := Decode("$GPGST,172814.0,0.006,0.023,0.020,273.6,0.023,0.020,0.031*6A")
	require.NoError(t, err)
	gst := s.(*GSTSentence)
	assert.Equal(t, &TimeOfDay{Hour: 17, Minute: 28, Second: 14}, gst.Time)
	assert.InDelta(t, 0.006, *gst.RMS, 1e-9)
	assert.InDelta(t, 273.6, *gst.Orientation, 1e-9)
	assert.InDelta(t, 0.031, *gst.AltitudeError, 1e-9)
}

func TestDecodeDHV(t *testing.T) {
	s, err := Decode("$GNDHV,021150.000,0.03,0.006,-0.042,-0.026,0.06*65")
	require.NoError(t, err)
	dhv := s.(*DHVSentence)
	assert.Equal(t, GN, dhv.Talker)
	assert.Equal(t, &TimeOfDay{Hour: 2, Minute: 11, Second: 50}, dhv.Time)
	assert.InDelta(t, -0.042, *dhv.SpeedY, 1e-9)
	assert.InDelta(t, 0.06, *dhv.GroundSpeed, 1e-9)
}

func TestDecodeTXT(t *testing.T) {
	s, err := Decode("$GPTXT,01,01,02,u-blox ag - www.u-blox.com*50")
	require.NoError(t, err)
	txt := s.(*TXTSentence)
	assert.Equal(t, intp(1), txt.Total)
	assert.Equal(t, TextNotice, *txt.Type)
	assert.Equal(t, "u-blox ag - www.u-blox.com", txt.Text)

	s, err = Decode(nmeaLine("GPTXT,01,01,07,a, b, c"))
	require.NoError(t, err)
	assert.Equal(t, "a, b, c", s.(*TXTSentence).Text)
}

func TestDecodeVTG(t *testing.T) {
	s, err := Decode("$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K,A*25")
	require.NoError(t, err)
	vtg := s.(*VTGSentence)
	assert.InDelta(t, 54.7, *vtg.TrueCourse, 1e-9)
	assert.InDelta(t, 34.4, *vtg.MagneticCourse, 1e-9)
	assert.InDelta(t, 5.5, *vtg.SpeedKnots, 1e-9)
	assert.InDelta(t, 10.2, *vtg.SpeedKPH, 1e-9)
	assert.Equal(t, Autonomous, *vtg.Mode)
}

func TestDecodeZDA(t *testing.T) {
	s, err := Decode("$GPZDA,201530.00,04,07,2002,00,00*60")
	require.NoError(t, err)
	zda := s.(*ZDASentence)
	d, ok := zda.Date()
	require.True(t, ok)
	assert.Equal(t, Date{Year: 2002, Month: time.July, Day: 4}, d)
	ts, ok := zda.Timestamp()
	require.True(t, ok)
	assert.Equal(t, time.Date(2002, time.July, 4, 20, 15, 30, 0, time.UTC), ts)

	s, err = Decode(nmeaLine("GPZDA,201530.00,04,07,2002"))
	require.NoError(t, err)
	zda = s.(*ZDASentence)
	assert.Nil(t, zda.ZoneHours)
	assert.Nil(t, zda.ZoneMinutes)
	_, ok = zda.Timestamp()
	assert.True(t, ok)

	_, err = Decode(nmeaLine("GPZDA,201530.00,31,02,2002,00,00"))
	requireFieldError(t, err, "date", ErrInvalidFieldValue)

	_, err = Decode(nmeaLine("GPZDA,201530.00,04,07,2002,14,00"))
	requireFieldError(t, err, "zone_hours", ErrInvalidFieldValue)
}

func TestDecodeEnvelopeErrors(t *testing.T) {
	_, err := Decode("$GPXYZ,1,2,3*50")
	assert.True(t, errors.Is(err, ErrUnknownIdentifier), "got %v", err)

	_, err = Decode("$PUBX,00,1*2E")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedChecksum))

	_, err = Decode(nmeaLine("XXGGA,1"))
	assert.True(t, errors.Is(err, ErrUnknownTalker))

	_, err = Decode("$GPZDA,201530.00,04,07,2002,00,00*61")
	assert.True(t, errors.Is(err, ErrMalformedChecksum))

	_, err = Decode("GPZDA,201530.00,04,07,2002,00,00*60")
	assert.True(t, errors.Is(err, ErrMalformedChecksum))
}

func TestSentenceJSON(t *testing.T) {
	s, err := Decode("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47")
	require.NoError(t, err)
	b, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "GP", m["talker"])
	assert.Equal(t, "GGA", m["identifier"])
	assert.Equal(t, "gps", m["quality"])
	assert.NotContains(t, m, "station_id")
}
