package audio

import (
	"fmt"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// Play plays an audio file with whatever player the platform provides.
// The file is left in place; the caller owns its lifetime.
func Play(audioFile string) error {
	var cmd *exec.Cmd

	switch {
	case isCommandAvailable("afplay"):
		// macOS
		cmd = exec.Command("afplay", audioFile)
	case isCommandAvailable("aplay"):
		// Linux with ALSA
		cmd = exec.Command("aplay", "-q", audioFile)
	case isCommandAvailable("paplay"):
		// Linux with PulseAudio
		cmd = exec.Command("paplay", audioFile)
	case isCommandAvailable("ffplay"):
		cmd = exec.Command("ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", audioFile)
	default:
		return fmt.Errorf("no audio player found")
	}

	log.Debug().Str("player", cmd.Path).Str("file", audioFile).Msg("Playing audio")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to play audio: %w", err)
	}

	return nil
}

func isCommandAvailable(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}
