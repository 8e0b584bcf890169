// Package dynamics turns a loudness profile into a smooth gain envelope and
// applies it to audio.
//
// The stages are:
//   - GainCurve: maps a loudness level to a target gain through a
//     t*tanh(L/t) soft limiter. Quiet levels pass at unity, loud levels are
//     pulled back towards the tap value.
//   - Segments: groups per-tick gains into fixed-length fade segments that
//     carry the gain of their loudest tick.
//   - Envelope: interpolates between segment boundary knots so the gain
//     never jumps and no segment is louder than its own gain.
//   - ApplyGain: multiplies a channel by the envelope.
package dynamics
