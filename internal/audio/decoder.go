package audio

import (
	"fmt"
	"os/exec"
	"strconv"
)

// DecodeFile runs FFmpeg to decode any audio file it understands into a
// stereo buffer at the given rate. Used for overlay clips that are not WAV.
func DecodeFile(path string, rate int) (Stereo, error) {
	cmd := exec.Command("ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := cmd.Output()
	if err != nil {
		return Stereo{}, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}
	return FromPCM16(BytesToSamples(out)), nil
}
