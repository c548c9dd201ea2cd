package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/guard"
	"github.com/joshuapare/memkit/internal/pages"
)

const fillByte = 0xAA

var (
	guardSize    int
	guardWrite   int
	guardOffset  int
	guardProtect bool
)

func init() {
	cmd := newGuardCmd()
	cmd.Flags().IntVar(&guardSize, "size", 10, "Requested block size in bytes")
	cmd.Flags().IntVar(&guardWrite, "write", 0, "Number of bytes to write (default: --size)")
	cmd.Flags().IntVar(&guardOffset, "offset", 0, "Offset of the first written byte")
	cmd.Flags().BoolVar(&guardProtect, "protect", false, "Make the guard pages inaccessible (overrides MEMKIT_PROTECT_PAGES)")
	rootCmd.AddCommand(cmd)
}

func newGuardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guard",
		Short: "Allocate a guarded block, write into it and report overflow",
		Long: `The guard command allocates one guarded block, writes a run of bytes
starting at --offset, frees the block and reports whether the canary slack
behind it was damaged. Writes are clamped to the page-rounded capacity so they
never reach the trailing guard page.

Example:
  memctl guard --size 10                      # in bounds, clean
  memctl guard --size 10 --offset 10 --write 4090
  memctl guard --size 100 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGuard()
		},
	}
}

type guardResult struct {
	Size     int  `json:"size"`
	Capacity int  `json:"capacity"`
	Mapped   int  `json:"mapped"`
	PageSize int  `json:"page_size"`
	Offset   int  `json:"offset"`
	Written  int  `json:"written"`
	Overflow bool `json:"overflow"`
	Underrun bool `json:"underflow"`
	First    int  `json:"first_damaged,omitempty"`
	Damaged  int  `json:"damaged,omitempty"`
}

func runGuard() error {
	if guardOffset < 0 {
		return fmt.Errorf("offset must not be negative, got %d", guardOffset)
	}
	write := guardWrite
	if write == 0 {
		write = guardSize
	}

	opts := guard.OptionsFromConfig(cfg)
	opts.ProtectPages = opts.ProtectPages || guardProtect
	a := guard.New(opts)

	b, err := a.AllocGuarded(guardSize)
	if err != nil {
		return fmt.Errorf("failed to allocate: %w", err)
	}
	ps := a.PageSize()
	res := guardResult{
		Size:     len(b),
		Capacity: cap(b),
		Mapped:   pages.RoundUp(guardSize, ps) + 2*ps,
		PageSize: ps,
		Offset:   guardOffset,
	}

	full := b[:cap(b)]
	end := min(guardOffset+write, len(full))
	for i := guardOffset; i < end; i++ {
		full[i] = fillByte
	}
	if end > guardOffset {
		res.Written = end - guardOffset
	}
	printVerbose("Wrote %d bytes at offset %d of a %d-byte block\n", res.Written, guardOffset, guardSize)

	freeErr := a.Free(b)
	var cerr *guard.CorruptionError
	if errors.As(freeErr, &cerr) {
		res.First = cerr.Offset
		res.Damaged = cerr.Damaged
	}
	res.Overflow = errors.Is(freeErr, guard.ErrOverflow)
	res.Underrun = errors.Is(freeErr, guard.ErrUnderflow)
	if freeErr != nil && cerr == nil {
		return fmt.Errorf("failed to free: %w", freeErr)
	}

	if jsonOut {
		return printJSON(res)
	}

	printInfo("Block:    %s requested, %s capacity\n", formatBytes(int64(res.Size)), formatBytes(int64(res.Capacity)))
	printInfo("Mapping:  %s bytes (%s-byte pages)\n", formatNumber(int64(res.Mapped)), formatNumber(int64(ps)))
	printInfo("Written:  %s bytes at offset %d\n", formatNumber(int64(res.Written)), res.Offset)
	if res.Overflow {
		printInfo("Result:   overflow detected, %s slack bytes damaged, first at offset %d\n",
			formatNumber(int64(res.Damaged)), res.First)
	} else {
		printInfo("Result:   clean\n")
	}
	return nil
}
