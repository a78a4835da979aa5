package converters

import (
	"reflect"
	"testing"
	"time"

	"github.com/Station-Manager/funcadapt"
	"github.com/aarondl/null/v8"
	"github.com/aarondl/sqlboiler/v4/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type station struct {
	Callsign string  `json:"callsign" yaml:"callsign"`
	Freq     float64 `json:"freq" yaml:"freq"`
}

type stationView struct {
	Callsign string `json:"callsign"`
}

func newEngine(t *testing.T) *funcadapt.Engine {
	t.Helper()
	e := funcadapt.New()
	require.NoError(t, RegisterDefaults(e))
	return e
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"20240309", "2024-03-09"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseDate("09/03/2024")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
	_, err = ParseDate(20240309)
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	want := time.Date(0, time.January, 1, 14, 32, 0, 0, time.UTC)
	for _, in := range []string{"1432", "14:32"} {
		got, err := ParseTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseTime("2561")
	assert.Error(t, err)
}

func TestFormatDateAndTime(t *testing.T) {
	ts := time.Date(2024, time.March, 9, 7, 5, 0, 0, time.UTC)

	d, err := FormatDate(ts)
	require.NoError(t, err)
	assert.Equal(t, "20240309", d)

	tm, err := FormatTime(ts)
	require.NoError(t, err)
	assert.Equal(t, "0705", tm)

	_, err = FormatDate("20240309")
	assert.Error(t, err)
}

func TestEngineDates(t *testing.T) {
	e := newEngine(t)
	timeT := reflect.TypeOf(time.Time{})

	out, err := e.Convert("2024-03-09", timeT)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC), out)

	out, err = e.Convert("0930", timeT)
	require.NoError(t, err)
	assert.Equal(t, 9, out.(time.Time).Hour())

	out, err = e.Convert(time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC), reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, "20240309", out)

	// null.String unwraps to string before the date provider runs.
	out, err = e.Convert(null.StringFrom("20240309"), timeT)
	require.NoError(t, err)
	assert.Equal(t, 2024, out.(time.Time).Year())

	_, err = e.Convert(null.String{}, timeT)
	assert.ErrorIs(t, err, funcadapt.ErrNullValue)

	_, err = e.Convert("not a date", timeT)
	assert.ErrorIs(t, err, funcadapt.ErrNoConversion)
}

func TestDatesCustomLayout(t *testing.T) {
	e := funcadapt.New()
	require.NoError(t, e.RegisterProvider(reflect.TypeOf(time.Time{}), Dates{Layout: time.RFC3339}))

	ts := time.Date(2024, time.March, 9, 7, 5, 0, 0, time.UTC)
	out, err := e.Convert(ts, reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09T07:05:00Z", out)

	back, err := e.Convert(out, reflect.TypeOf(time.Time{}))
	require.NoError(t, err)
	assert.True(t, ts.Equal(back.(time.Time)))
}

type epoch int64

func TestDatesFromUnixSeconds(t *testing.T) {
	e := newEngine(t)
	timeT := reflect.TypeOf(time.Time{})
	want := time.Date(2024, time.March, 9, 7, 5, 0, 0, time.UTC)

	for _, in := range []any{want.Unix(), int(want.Unix()), uint64(want.Unix()), float64(want.Unix()), epoch(want.Unix())} {
		out, err := e.Convert(in, timeT)
		require.NoError(t, err, "%T", in)
		assert.Equal(t, want, out)
	}

	_, err := e.Convert(1.5, timeT)
	assert.ErrorIs(t, err, funcadapt.ErrNoConversion)
	_, err = e.Convert(uint64(1)<<63, timeT)
	assert.ErrorIs(t, err, funcadapt.ErrNoConversion)

	_, err = FromUnix("1709967900")
	assert.Error(t, err)
}

func TestStringsOutOfRange(t *testing.T) {
	fn := Strings{}.ConverterTo(reflect.TypeOf(int8(0)))
	require.NotNil(t, fn)

	_, err := fn("300")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgOutOfRange)

	_, err = fn("three")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), ErrMsgOutOfRange)
}

func TestEngineStrings(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		in   any
		dst  reflect.Type
		want any
	}{
		{"42", reflect.TypeOf(int(0)), 42},
		{" 7 ", reflect.TypeOf(uint8(0)), uint8(7)},
		{"true", reflect.TypeOf(false), true},
		{"14.074", reflect.TypeOf(float64(0)), 14.074},
		{"1m30s", reflect.TypeOf(time.Duration(0)), 90 * time.Second},
		{int64(-3), reflect.TypeOf(""), "-3"},
		{uint16(9), reflect.TypeOf(""), "9"},
		{false, reflect.TypeOf(""), "false"},
		{float32(0.5), reflect.TypeOf(""), "0.5"},
		{2 * time.Hour, reflect.TypeOf(""), "2h0m0s"},
	}
	for _, tt := range tests {
		got, err := e.Convert(tt.in, tt.dst)
		require.NoError(t, err, "%v -> %s", tt.in, tt.dst)
		assert.Equal(t, tt.want, got)
	}

	_, err := e.Convert("300", reflect.TypeOf(int8(0)))
	assert.ErrorIs(t, err, funcadapt.ErrNoConversion)

	c, err := e.Classify(reflect.TypeOf(""), reflect.TypeOf(0))
	require.NoError(t, err)
	assert.Equal(t, funcadapt.UserDefined, c.Kind)
	assert.False(t, c.Implicit)
}

func TestEngineUUIDs(t *testing.T) {
	e := newEngine(t)
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	uuidT := reflect.TypeOf(uuid.UUID{})

	out, err := e.Convert(id.String(), uuidT)
	require.NoError(t, err)
	assert.Equal(t, id, out)

	out, err = e.Convert(id[:], uuidT)
	require.NoError(t, err)
	assert.Equal(t, id, out)

	out, err = e.Convert(id, reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, id.String(), out)

	out, err = e.Convert(id, reflect.TypeOf([]byte(nil)))
	require.NoError(t, err)
	assert.Equal(t, id[:], out)

	out, err = e.Convert(id.String(), reflect.TypeOf(uuid.NullUUID{}))
	require.NoError(t, err)
	assert.Equal(t, uuid.NullUUID{UUID: id, Valid: true}, out)

	_, err = e.Convert("nope", uuidT)
	assert.Error(t, err)
}

func TestEngineJSON(t *testing.T) {
	e := newEngine(t)
	st := station{Callsign: "M0CMC", Freq: 14.074}

	doc, err := e.Convert(st, reflect.TypeOf(types.JSON(nil)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"callsign":"M0CMC","freq":14.074}`, string(doc.(types.JSON)))

	back, err := e.Convert(doc, reflect.TypeOf(station{}))
	require.NoError(t, err)
	assert.Equal(t, st, back)

	nj, err := e.Convert(st, reflect.TypeOf(null.JSON{}))
	require.NoError(t, err)
	assert.True(t, nj.(null.JSON).Valid)

	back, err = e.Convert(nj, reflect.TypeOf(&station{}))
	require.NoError(t, err)
	assert.Equal(t, &st, back)

	_, err = e.Convert(null.JSON{}, reflect.TypeOf(station{}))
	assert.ErrorIs(t, err, funcadapt.ErrNullValue)
}

func TestViaJSON(t *testing.T) {
	e := funcadapt.New()
	src, dst := reflect.TypeOf(station{}), reflect.TypeOf(stationView{})
	require.NoError(t, e.RegisterConverter(src, dst, ViaJSON(dst)))

	out, err := e.Convert(station{Callsign: "G4ABC"}, dst)
	require.NoError(t, err)
	assert.Equal(t, stationView{Callsign: "G4ABC"}, out)

	fn := ViaJSON(dst)
	out, err = fn(nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = fn("G4ABC")
	assert.Error(t, err)
}

func TestEngineYAML(t *testing.T) {
	e := WithDefaults(funcadapt.NewBuilder()).Build()
	st := station{Callsign: "M0CMC", Freq: 7.074}

	doc, err := e.Convert(st, reflect.TypeOf(YAML(nil)))
	require.NoError(t, err)
	assert.Contains(t, string(doc.(YAML)), "callsign: M0CMC")

	back, err := e.Convert(doc, reflect.TypeOf(station{}))
	require.NoError(t, err)
	assert.Equal(t, st, back)
}

func TestBindThroughProviders(t *testing.T) {
	e := newEngine(t)
	tune := funcadapt.MustFunc("tune", func(freq float64, at time.Time) string {
		return at.Format("2006-01-02") + "@" + time.Duration(freq*float64(time.Second)).String()
	})
	shape := funcadapt.MustShape(reflect.TypeOf(""), reflect.TypeOf(""), reflect.TypeOf(""))

	a, err := e.Bind(tune, shape)
	require.NoError(t, err)
	out, err := a.Invoke("1.5", "20240309")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09@1.5s", out)

	_, err = a.Invoke("fast", "20240309")
	assert.ErrorIs(t, err, funcadapt.ErrNoConversion)
}
