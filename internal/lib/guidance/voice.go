package guidance

// Voice enforces the speech discipline: at most one utterance in flight, and
// nothing spoken while disabled. A Voice without a sink silently does nothing.
type Voice struct {
	sink    SpeechSink
	enabled bool
}

// NewVoice creates an enabled voice over sink, which may be nil
func NewVoice(sink SpeechSink) *Voice {
	return &Voice{sink: sink, enabled: true}
}

// Say cancels any in-flight utterance and speaks text. It reports whether
// anything was handed to the sink.
func (v *Voice) Say(text string) bool {
	if v == nil || !v.enabled || v.sink == nil {
		return false
	}
	v.sink.Cancel()
	v.sink.Speak(text)
	return true
}

// Cancel stops the in-flight utterance, if any
func (v *Voice) Cancel() {
	if v == nil || v.sink == nil {
		return
	}
	v.sink.Cancel()
}

// SetEnabled turns speech on or off. Disabling cancels the current utterance.
func (v *Voice) SetEnabled(enabled bool) {
	if v == nil {
		return
	}
	if !enabled {
		v.Cancel()
	}
	v.enabled = enabled
}

// Enabled reports whether speech is on
func (v *Voice) Enabled() bool {
	return v != nil && v.enabled
}

// Recorder is a SpeechSink that keeps what would have been spoken. The server
// uses it to hand utterances back to clients that do their own synthesis.
type Recorder struct {
	utterances []string
	cancels    int
}

func (r *Recorder) Speak(text string) {
	r.utterances = append(r.utterances, text)
}

func (r *Recorder) Cancel() {
	r.cancels++
}

// Utterances returns everything spoken so far
func (r *Recorder) Utterances() []string {
	out := make([]string, len(r.utterances))
	copy(out, r.utterances)
	return out
}

// Drain returns everything spoken since the last drain
func (r *Recorder) Drain() []string {
	out := r.utterances
	r.utterances = nil
	return out
}

// Cancels counts cancel requests, including those issued before each utterance
func (r *Recorder) Cancels() int {
	return r.cancels
}
