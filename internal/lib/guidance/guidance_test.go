package guidance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

// A walk north, then east, then north again
var (
	pointA = geo.Point{Latitude: 40.000, Longitude: -73.000}
	pointB = geo.Point{Latitude: 40.002, Longitude: -73.000}
	pointC = geo.Point{Latitude: 40.002, Longitude: -72.997}
	pointD = geo.Point{Latitude: 40.004, Longitude: -72.997}
	zigzag = []geo.Point{pointA, pointB, pointC, pointD}
)

func ids(instructions []Instruction) []string {
	out := make([]string, len(instructions))
	for i, ins := range instructions {
		out[i] = ins.ID
	}
	return out
}

func TestGenerateInstructions(t *testing.T) {
	instructions := GenerateInstructions(zigzag)
	require.Equal(t, []string{"start", "turn-1", "turn-2", "destination"}, ids(instructions))

	assert.Equal(t, "Starting navigation. Head forward.", instructions[0].Text)
	assert.Equal(t, pointA, instructions[0].Coords)
	assert.Equal(t, 0.0, instructions[0].DistanceFromStart)

	assert.Equal(t, "Turn right, then continue for "+FormatDistance(geo.Distance(pointB, pointC))+".", instructions[1].Text)
	assert.Equal(t, pointB, instructions[1].Coords)
	assert.InDelta(t, geo.Distance(pointA, pointB), instructions[1].DistanceFromStart, 1e-9)

	assert.Equal(t, "Turn left, then continue for "+FormatDistance(geo.Distance(pointC, pointD))+".", instructions[2].Text)
	assert.Equal(t, pointC, instructions[2].Coords)

	assert.Equal(t, "You have arrived at your destination.", instructions[3].Text)
	assert.Equal(t, pointD, instructions[3].Coords)
	assert.InDelta(t, geo.PathLength(zigzag), instructions[3].DistanceFromStart, 1e-6)

	for _, ins := range instructions {
		assert.False(t, ins.Announced)
	}
}

func TestGenerateInstructions_StraightAndDegenerate(t *testing.T) {
	straight := []geo.Point{pointA, pointB, {Latitude: 40.004, Longitude: -73.000}}
	assert.Equal(t, []string{"start", "destination"}, ids(GenerateInstructions(straight)))

	assert.Equal(t, []string{"start", "destination"}, ids(GenerateInstructions([]geo.Point{pointA, pointB})))
	assert.Empty(t, GenerateInstructions([]geo.Point{pointA}))
	assert.Empty(t, GenerateInstructions(nil))
}

func TestGenerateInstructions_SharpTurn(t *testing.T) {
	// North, then back south-west
	path := []geo.Point{pointA, pointB, {Latitude: 40.0005, Longitude: -73.0005}}
	instructions := GenerateInstructions(path)
	require.Len(t, instructions, 3)
	assert.Contains(t, instructions[1].Text, "Make a sharp left, then continue for ")
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters   float64
		expected string
	}{
		{0, "0 meters"},
		{85.5, "86 meters"},
		{999.4, "999 meters"},
		{1000, "1.0 kilometers"},
		{1549, "1.5 kilometers"},
		{12345, "12.3 kilometers"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDistance(tt.meters))
	}
}

func newTestNavigator() (*Navigator, *Recorder) {
	recorder := &Recorder{}
	return NewNavigator(NewVoice(recorder)), recorder
}

func TestNavigator_StartAnnouncesStart(t *testing.T) {
	nav, recorder := newTestNavigator()
	assert.Equal(t, StateIdle, nav.State())

	nav.Start(zigzag)

	assert.Equal(t, StateNavigating, nav.State())
	assert.Equal(t, []string{"Starting navigation. Head forward."}, recorder.Utterances())

	current, ok := nav.Current()
	require.True(t, ok)
	assert.Equal(t, StartID, current.ID)
	assert.True(t, nav.Instructions()[0].Announced)
}

func TestNavigator_StartWithoutRoute(t *testing.T) {
	nav, recorder := newTestNavigator()

	nav.Start([]geo.Point{pointA})

	assert.Equal(t, StateIdle, nav.State())
	assert.Empty(t, recorder.Utterances())
	_, ok := nav.Current()
	assert.False(t, ok)

	progress := nav.UpdateForPosition(pointA)
	assert.Equal(t, StateIdle, progress.State)
	assert.Equal(t, 0.0, progress.RemainingDistance)
}

func TestNavigator_AnnouncesOnce(t *testing.T) {
	nav, recorder := newTestNavigator()
	nav.Start(zigzag)

	// ~25m short of the first turn
	nearTurn := geo.Point{Latitude: 40.002 - 0.000225, Longitude: -73.000}

	first := nav.UpdateForPosition(nearTurn)
	second := nav.UpdateForPosition(nearTurn)

	assert.Equal(t, []string{"turn-1"}, first.Announced)
	assert.Empty(t, second.Announced)

	utterances := recorder.Utterances()
	require.Len(t, utterances, 2)
	assert.Equal(t, nav.Instructions()[1].Text, utterances[1])

	// Leaving and re-entering the radius stays silent
	nav.UpdateForPosition(pointA)
	nav.UpdateForPosition(nearTurn)
	assert.Len(t, recorder.Utterances(), 2)
}

func TestNavigator_CurrentTracksNearestUnannounced(t *testing.T) {
	nav, recorder := newTestNavigator()
	nav.Start(zigzag)

	// 100m north of the start: nothing in range, first turn is nearest
	progress := nav.UpdateForPosition(geo.Point{Latitude: 40.0009, Longitude: -73.000})
	require.NotNil(t, progress.Current)
	assert.Equal(t, "turn-1", progress.Current.ID)
	assert.Empty(t, progress.Announced)
	assert.Len(t, recorder.Utterances(), 1)
	assert.Equal(t, StateNavigating, progress.State)
}

func TestNavigator_Arrival(t *testing.T) {
	nav, recorder := newTestNavigator()
	nav.Start(zigzag)

	// ~10m short of the destination
	nearEnd := geo.Point{Latitude: 40.004 - 0.00009, Longitude: -72.997}

	progress := nav.UpdateForPosition(nearEnd)
	assert.Equal(t, StateArrived, progress.State)
	assert.Equal(t, []string{DestinationID}, progress.Announced)
	assert.InDelta(t, 10, progress.RemainingDistance, 0.5)

	again := nav.UpdateForPosition(nearEnd)
	assert.Empty(t, again.Announced)

	arrivals := 0
	for _, u := range recorder.Utterances() {
		if u == "You have arrived at your destination." {
			arrivals++
		}
	}
	assert.Equal(t, 1, arrivals)
}

func TestNavigator_ArrivalAfterDestinationAnnounced(t *testing.T) {
	nav, recorder := newTestNavigator()
	nav.Start(zigzag)

	// ~25m away announces the destination instruction without arriving
	progress := nav.UpdateForPosition(geo.Point{Latitude: 40.004 - 0.000225, Longitude: -72.997})
	assert.Equal(t, []string{DestinationID}, progress.Announced)
	assert.Equal(t, StateNavigating, progress.State)

	progress = nav.UpdateForPosition(geo.Point{Latitude: 40.004 - 0.00005, Longitude: -72.997})
	assert.Equal(t, StateArrived, progress.State)
	assert.Empty(t, progress.Announced)
	assert.Len(t, recorder.Utterances(), 2)
}

func TestNavigator_VoiceToggle(t *testing.T) {
	nav, recorder := newTestNavigator()
	nav.Start(zigzag)
	cancelsBefore := recorder.Cancels()

	nav.SetVoiceEnabled(false)
	assert.False(t, nav.VoiceEnabled())
	assert.Equal(t, cancelsBefore+1, recorder.Cancels(), "disabling cancels in-flight speech")

	nearTurn := geo.Point{Latitude: 40.002 - 0.000225, Longitude: -73.000}
	progress := nav.UpdateForPosition(nearTurn)
	assert.Equal(t, []string{"turn-1"}, progress.Announced, "bookkeeping continues while muted")
	assert.Len(t, recorder.Utterances(), 1)

	assert.True(t, nav.ToggleVoice())
	nav.UpdateForPosition(nearTurn)
	assert.Len(t, recorder.Utterances(), 1, "muted announcements are not replayed")

	assert.False(t, nav.ToggleVoice())
}

func TestNavigator_CancelBeforeSpeak(t *testing.T) {
	nav, recorder := newTestNavigator()
	nav.Start(zigzag)
	assert.Equal(t, 1, recorder.Cancels())

	nav.UpdateForPosition(geo.Point{Latitude: 40.002 - 0.000225, Longitude: -73.000})
	assert.Equal(t, 2, recorder.Cancels())
}

func TestNavigator_Stop(t *testing.T) {
	nav, recorder := newTestNavigator()
	nav.Start(zigzag)

	nav.Stop()

	assert.Equal(t, StateIdle, nav.State())
	assert.Empty(t, nav.Instructions())
	assert.Equal(t, 0.0, nav.RemainingDistance(pointA))
	assert.Equal(t, 2, recorder.Cancels())

	// Restarting announces the start again
	nav.Start(zigzag)
	assert.Len(t, recorder.Utterances(), 2)
}

func TestNavigator_RemainingDistanceIsStraightLine(t *testing.T) {
	nav, _ := newTestNavigator()
	nav.Start(zigzag)

	assert.Equal(t, geo.Distance(pointA, pointD), nav.RemainingDistance(pointA))
	assert.Less(t, nav.RemainingDistance(pointA), geo.PathLength(zigzag))
}

func TestNavigator_WithoutSpeechEngine(t *testing.T) {
	nav := NewNavigator(NewVoice(nil), WithAnnounceRadius(50), WithArrivalRadius(5))
	nav.Start(zigzag)

	// ~40m from the first turn is inside the custom radius
	progress := nav.UpdateForPosition(geo.Point{Latitude: 40.002 - 0.00036, Longitude: -73.000})
	assert.Equal(t, []string{"turn-1"}, progress.Announced)

	nav.Stop()
	assert.Equal(t, StateIdle, nav.State())
}

func TestRecorder_Drain(t *testing.T) {
	recorder := &Recorder{}
	voice := NewVoice(recorder)

	assert.True(t, voice.Say("one"))
	assert.True(t, voice.Say("two"))
	assert.Equal(t, []string{"one", "two"}, recorder.Drain())
	assert.Empty(t, recorder.Drain())

	voice.SetEnabled(false)
	assert.False(t, voice.Say("three"))
	assert.Empty(t, recorder.Utterances())
}
