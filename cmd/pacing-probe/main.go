// ABOUTME: Prints the pacing plan for a display and content combination
// ABOUTME: Useful for checking VRR detection and BFI decisions without running a session
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Resonate-Protocol/avsync/pkg/engine"
	"github.com/Resonate-Protocol/avsync/pkg/pacer"
	"github.com/sirupsen/logrus"
)

var (
	displayHz  = flag.Float64("display-hz", 60, "Current display refresh rate")
	modes      = flag.String("modes", "", "Comma separated refresh rates the display supports")
	fps        = flag.Float64("fps", 60, "Content frame rate")
	sampleRate = flag.Float64("sample-rate", 48000, "Content audio sample rate")
	noBFI      = flag.Bool("no-bfi", false, "Disable black frame insertion")
	vrr        = flag.String("vrr", "auto", "Variable refresh: auto, on or off")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)
	logrus.SetLevel(logrus.WarnLevel)

	rates := []float64{*displayHz}
	for _, field := range strings.Split(*modes, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		hz, err := strconv.ParseFloat(field, 64)
		if err != nil {
			log.Fatalf("Invalid mode %q: %v", field, err)
		}
		rates = append(rates, hz)
	}

	opts := pacer.Options{DisableBFI: *noBFI}
	switch *vrr {
	case "auto":
	case "on":
		v := true
		opts.ForceVRR = &v
	case "off":
		v := false
		opts.ForceVRR = &v
	default:
		log.Fatalf("Invalid -vrr %q", *vrr)
	}

	display := pacer.StaticDisplay{Hz: *displayHz, ModeList: pacer.ModesAt(1920, 1080, rates...)}
	info := engine.AVInfo{FPS: *fps, SampleRate: *sampleRate}

	state, err := pacer.ComputeState(display, info, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	in, out := state.StretchRates()

	fmt.Println("=== Pacing Plan ===")
	fmt.Printf("VRR detected:     %v\n", pacer.IsVRRCapable(display.Modes(), *fps))
	fmt.Printf("VRR active:       %v\n", state.VRR)
	fmt.Printf("Swap interval:    %d\n", state.SwapInterval)
	fmt.Printf("BFI factor:       %d\n", state.BFIFactor)
	fmt.Printf("Target fps:       %.4f\n", state.TargetFPS)
	fmt.Printf("Tick interval:    %v\n", state.TickInterval())
	fmt.Printf("Frame interval:   %v\n", state.FrameInterval())
	fmt.Printf("Effective rate:   %.2f Hz (device %d Hz)\n", state.EffectiveSampleRate, state.DeviceSampleRate())
	fmt.Printf("Audio stretch:    %d -> %d Hz\n", in, out)

	if state.BFIFactor > 0 {
		pattern := make([]string, 0, state.SwapInterval*3)
		for i := 0; i < 3; i++ {
			pattern = append(pattern, "R")
			for j := 0; j < state.BFIFactor; j++ {
				pattern = append(pattern, "B")
			}
		}
		fmt.Printf("Frame pattern:    %s ...\n", strings.Join(pattern, " "))
	}
}
