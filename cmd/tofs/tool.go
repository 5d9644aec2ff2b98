package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/aligator/tofs"
	"github.com/aligator/tofs/codec"
	"github.com/aligator/tofs/disklayer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

var (
	ErrUsage       = errors.New("wrong arguments")
	ErrImageExists = errors.New("the image already exists")
)

// tool holds what every command needs. hostFs is where images and host files live.
type tool struct {
	hostFs afero.Fs
	out    io.Writer
	log    *logrus.Logger
	cfg    *Config
}

func (t *tool) configure(c *cli.Context) error {
	cfg, err := LoadConfig(t.hostFs, c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("image") {
		cfg.Image = c.String("image")
	}

	t.log.SetLevel(cfg.LogLevel.Std())
	t.cfg = cfg
	return nil
}

func usage(c *cli.Context, min, max int) error {
	if n := c.NArg(); n < min || n > max {
		return fmt.Errorf("%w: %s %s", ErrUsage, c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

func (t *tool) openDiskLayer(readOnly bool) (*disklayer.DiskLayer, error) {
	if err := t.cfg.Validate(); err != nil {
		return nil, err
	}
	return disklayer.OpenImage(t.hostFs, t.cfg.Image, readOnly, disklayer.Options{
		Layout:    t.cfg.Geometry().Layout(),
		BufferMax: t.cfg.Buffers,
		Log:       t.log,
	})
}

// withVolume mounts the image, runs fn and closes the volume, which writes every change.
func (t *tool) withVolume(readOnly bool, fn func(volume *tofs.Fs) error) error {
	dl, err := t.openDiskLayer(readOnly)
	if err != nil {
		return err
	}
	volume, err := tofs.New(dl, t.cfg.Geometry(), tofs.WithLogger(t.log))
	if err != nil {
		_ = dl.Close()
		return err
	}

	err = fn(volume)
	if cerr := volume.Close(); err == nil {
		err = cerr
	}
	return err
}

func (t *tool) list(c *cli.Context) error {
	return t.withVolume(true, func(volume *tofs.Fs) error {
		files := 0
		cursor := volume.Examine()
		for {
			entry, err := cursor.Next()
			if errors.Is(err, tofs.ErrNoMoreEntries) {
				break
			}
			if err != nil {
				return err
			}
			files++

			date := "-"
			switch {
			case entry.TimeValid:
				date = entry.ModTime.Format("2006-01-02 15:04:05")
			case entry.DateValid:
				date = entry.ModTime.Format("2006-01-02")
			}
			fmt.Fprintf(t.out, "%-12s %7d %3d  %-19s %s\n",
				entry.Name, entry.Size, entry.Blocks, date,
				codec.FormatMeta(entry.Comment, entry.Type, entry.Extra, entry.HasExtra))
		}

		fmt.Fprintf(t.out, "%d files, %d bytes free\n", files, volume.FreeBytes())
		return nil
	})
}

func (t *tool) cat(c *cli.Context) error {
	if err := usage(c, 1, 1); err != nil {
		return err
	}
	return t.withVolume(true, func(volume *tofs.Fs) error {
		h, err := volume.OpenFile(tofs.ModeOldFile, c.Args().First(), nil, t.cfg.CaseSensitive, false)
		if err != nil {
			return err
		}
		defer h.Close()

		_, err = io.Copy(t.out, h)
		return err
	})
}

func (t *tool) put(c *cli.Context) error {
	if err := usage(c, 1, 2); err != nil {
		return err
	}
	hostPath := c.Args().Get(0)
	name := filepath.Base(hostPath)
	if c.NArg() == 2 {
		name = c.Args().Get(1)
	}

	var typ *uint16
	if s := c.String("type"); s != "" {
		v, err := strconv.ParseUint(s, 16, 16)
		if err != nil {
			return fmt.Errorf("%w: type %q: %v", ErrUsage, s, err)
		}
		value := uint16(v)
		typ = &value
	}

	data, err := afero.ReadFile(t.hostFs, hostPath)
	if err != nil {
		return err
	}

	return t.withVolume(false, func(volume *tofs.Fs) error {
		if typ != nil {
			// An existing file of another type is replaced as well.
			if err := volume.Delete(name, nil, t.cfg.CaseSensitive); err != nil && !errors.Is(err, tofs.ErrFileNotFound) {
				return err
			}
		}

		h, err := volume.OpenFile(tofs.ModeNewFile, name, typ, t.cfg.CaseSensitive, true)
		if err != nil {
			return err
		}
		if _, err := h.Write(data); err != nil {
			_ = h.Close()
			return err
		}

		t.log.WithFields(logrus.Fields{"name": h.Name(), "bytes": len(data)}).Info("file written")
		return h.Close()
	})
}

func (t *tool) get(c *cli.Context) error {
	if err := usage(c, 1, 2); err != nil {
		return err
	}
	name := c.Args().Get(0)
	hostPath := name
	if c.NArg() == 2 {
		hostPath = c.Args().Get(1)
	}

	return t.withVolume(true, func(volume *tofs.Fs) error {
		h, err := volume.OpenFile(tofs.ModeOldFile, name, nil, t.cfg.CaseSensitive, false)
		if err != nil {
			return err
		}
		defer h.Close()

		data, err := io.ReadAll(h)
		if err != nil {
			return err
		}
		return afero.WriteFile(t.hostFs, hostPath, data, 0644)
	})
}

func (t *tool) remove(c *cli.Context) error {
	if c.NArg() == 0 {
		return usage(c, 1, 1)
	}
	return t.withVolume(false, func(volume *tofs.Fs) error {
		for _, name := range c.Args().Slice() {
			if err := volume.Delete(name, nil, t.cfg.CaseSensitive); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *tool) rename(c *cli.Context) error {
	if err := usage(c, 2, 2); err != nil {
		return err
	}
	return t.withVolume(false, func(volume *tofs.Fs) error {
		return volume.Rename(c.Args().Get(0), nil, t.cfg.CaseSensitive, c.Args().Get(1))
	})
}

func (t *tool) comment(c *cli.Context) error {
	if err := usage(c, 2, 2); err != nil {
		return err
	}
	return t.withVolume(false, func(volume *tofs.Fs) error {
		return volume.SetComment(c.Args().Get(0), nil, t.cfg.CaseSensitive, c.Args().Get(1))
	})
}

func (t *tool) truncate(c *cli.Context) error {
	if err := usage(c, 2, 2); err != nil {
		return err
	}
	size, err := strconv.Atoi(c.Args().Get(1))
	if err != nil || size < 0 {
		return fmt.Errorf("%w: size %q", ErrUsage, c.Args().Get(1))
	}

	return t.withVolume(false, func(volume *tofs.Fs) error {
		h, err := volume.OpenFile(tofs.ModeOldFile, c.Args().Get(0), nil, t.cfg.CaseSensitive, false)
		if err != nil {
			return err
		}
		if err := h.SetSize(size); err != nil {
			_ = h.Close()
			return err
		}
		return h.Close()
	})
}

func (t *tool) label(c *cli.Context) error {
	if err := usage(c, 1, 1); err != nil {
		return err
	}
	return t.withVolume(false, func(volume *tofs.Fs) error {
		return volume.SetVolumeName(c.Args().First())
	})
}

// formatImage low level formats the image and writes an empty filesystem.
func (t *tool) formatImage(label string) error {
	dl, err := t.openDiskLayer(false)
	if err != nil {
		return err
	}
	if err := dl.LowLevelFormat(1); err != nil {
		_ = dl.Close()
		return err
	}

	volume, err := tofs.Allocate(dl, t.cfg.Geometry(), tofs.WithLogger(t.log))
	if err != nil {
		_ = dl.Close()
		return err
	}
	err = volume.Format(label)
	if cerr := volume.Close(); err == nil {
		err = cerr
	}
	return err
}

func (t *tool) format(c *cli.Context) error {
	if err := usage(c, 0, 1); err != nil {
		return err
	}
	return t.formatImage(c.Args().First())
}

func (t *tool) makeImage(c *cli.Context) error {
	if err := usage(c, 0, 1); err != nil {
		return err
	}
	if err := t.cfg.Validate(); err != nil {
		return err
	}

	exists, err := afero.Exists(t.hostFs, t.cfg.Image)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrImageExists, t.cfg.Image)
	}

	if err := disklayer.CreateImage(t.hostFs, t.cfg.Image, t.cfg.Geometry().Layout()); err != nil {
		return err
	}
	return t.formatImage(c.Args().First())
}

func (t *tool) info(c *cli.Context) error {
	return t.withVolume(true, func(volume *tofs.Fs) error {
		geo := volume.Geometry()

		fmt.Fprintf(t.out, "volume:   %s\n", volume.VolumeName())
		if date, ok := volume.VolumeDate(); ok {
			fmt.Fprintf(t.out, "created:  %s\n", date.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(t.out, "geometry: %d tracks, %d sectors of %d bytes, extended %v\n",
			geo.Tracks, geo.SectorsPerTrack, geo.SectorSize, geo.Extended)
		fmt.Fprintf(t.out, "clusters: %d of %d bytes, %d used, %d free\n",
			geo.MaxBlocks(), geo.BlockSize(), volume.UsedSpace(), volume.FreeSpace())
		fmt.Fprintf(t.out, "free:     %d bytes\n", volume.FreeBytes())
		return nil
	})
}
