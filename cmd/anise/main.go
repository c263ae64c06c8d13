// Command anise is a small inspector and query tool over kernel files:
//
//	anise inspect <kernel>...
//	anise translate -from 399 -to 0 -epoch "2024-01-01T00:00:00 TDB" <kernel>...
//	anise aer -target 301 -body 399 -lat 48.85 -lon 2.35 -epoch "..." <kernel>...
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/SwitchbackEngineer/anise/almanac"
	"github.com/SwitchbackEngineer/anise/bpc"
	"github.com/SwitchbackEngineer/anise/daf"
	"github.com/SwitchbackEngineer/anise/epoch"
	"github.com/SwitchbackEngineer/anise/frames"
	"github.com/SwitchbackEngineer/anise/spk"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var err error
	switch os.Args[1] {
	case "inspect":
		err = runInspect(os.Args[2:])
	case "translate":
		err = runTranslate(os.Args[2:], logger)
	case "aer":
		err = runAER(os.Args[2:], logger)
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: anise <inspect|translate|aer> [flags] <kernel>...")
	os.Exit(2)
}

func loadAll(paths []string, logger *slog.Logger) (*almanac.Almanac, error) {
	a := almanac.New(logger)
	for _, p := range paths {
		next, err := a.Load(p)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", p, err)
		}
		a = next
	}
	return a, nil
}

func runInspect(paths []string) error {
	if len(paths) == 0 {
		usage()
	}
	for _, path := range paths {
		src, err := daf.OpenMapped(path)
		if err != nil {
			return err
		}
		d, err := daf.Open(src)
		if err != nil {
			src.Close()
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Printf("%s: %s %q\n", path, d.Kind(), d.InternalName())
		sums, err := d.Summaries()
		if err != nil {
			d.Close()
			return err
		}
		for _, s := range sums {
			start := epoch.FromTDBSeconds(s.StartET())
			end := epoch.FromTDBSeconds(s.EndET())
			if d.Kind() == daf.KindSPK {
				fmt.Printf("  %-20s target=%-6d center=%-6d type=%d  %v .. %v\n",
					s.Name, spk.Target(s), spk.Center(s), s.DataType(), start, end)
			} else {
				fmt.Printf("  %-20s orient=%-6d base=%-6d type=%d  %v .. %v\n",
					s.Name, bpc.TargetOrient(s), bpc.BaseOrient(s), s.DataType(), start, end)
			}
		}
		d.Close()
	}
	return nil
}

func runTranslate(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("translate", flag.ExitOnError)
	from := fs.Int("from", 0, "target ephemeris ID")
	to := fs.Int("to", 0, "center ephemeris ID")
	epochStr := fs.String("epoch", "", "epoch, e.g. \"2024-01-01T00:00:00 TDB\"")
	abStr := fs.String("ab", "none", "aberration: none|lt|lt+s|converged")
	fs.Parse(args)

	at, err := epoch.Parse(*epochStr)
	if err != nil {
		return err
	}
	ab, err := almanac.ParseAberration(*abStr)
	if err != nil {
		return err
	}
	a, err := loadAll(fs.Args(), logger)
	if err != nil {
		return err
	}

	s, err := a.Translate(frames.Inertial(int32(*from)), frames.Inertial(int32(*to)), at, ab)
	if err != nil {
		return err
	}
	fmt.Printf("r_km   = [%.6f, %.6f, %.6f]  |r| = %.6f km\n", s.RKm[0], s.RKm[1], s.RKm[2], s.RangeKm())
	fmt.Printf("v_km_s = [%.9f, %.9f, %.9f]  |v| = %.9f km/s\n", s.VKmS[0], s.VKmS[1], s.VKmS[2], s.SpeedKmS())
	return nil
}

func runAER(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("aer", flag.ExitOnError)
	target := fs.Int("target", 0, "target ephemeris ID")
	body := fs.Int("body", int(frames.Earth), "observing body ephemeris ID")
	lat := fs.Float64("lat", 0, "observer latitude, degrees")
	lon := fs.Float64("lon", 0, "observer longitude, degrees")
	alt := fs.Float64("alt", 0, "observer altitude, km")
	epochStr := fs.String("epoch", "", "epoch")
	fs.Parse(args)

	at, err := epoch.Parse(*epochStr)
	if err != nil {
		return err
	}
	a, err := loadAll(fs.Args(), logger)
	if err != nil {
		return err
	}

	f, err := a.FrameInfo(frames.BodyFixed(int32(*body)))
	if err != nil {
		return err
	}
	obs, err := almanac.GroundStation(almanac.Geodetic{LatDeg: *lat, LonDeg: *lon, AltKm: *alt}, at, f)
	if err != nil {
		return err
	}
	aer, err := a.AzimuthElevationRange(almanac.State{Epoch: at, Frame: frames.Inertial(int32(*target))}, obs, nil)
	if err != nil {
		return err
	}
	fmt.Printf("azimuth   = %10.4f deg\n", aer.AzimuthDeg)
	fmt.Printf("elevation = %10.4f deg\n", aer.ElevationDeg)
	fmt.Printf("range     = %14.3f km\n", aer.RangeKm)
	fmt.Printf("rangerate = %12.6f km/s\n", aer.RangeRateKmS)
	return nil
}
