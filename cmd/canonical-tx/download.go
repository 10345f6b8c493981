package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/canonical-tx/internal/datasource/oncokb"
)

// HGNCCompleteSetURL is the complete HGNC nomenclature table.
const HGNCCompleteSetURL = "https://storage.googleapis.com/public-download-files/hgnc/tsv/tsv/hgnc_complete_set.txt"

const (
	hgncFileName        = "hgnc_complete_set.txt"
	cancerGenesFileName = "cancerGeneList.tsv"
)

// oncokbOverridesFileName returns the OncoKB isoform table name for an assembly.
func oncokbOverridesFileName(assembly string) string {
	return fmt.Sprintf("isoform_overrides_oncokb_%s.txt", strings.ToLower(assembly))
}

func newDownloadCmd() *cobra.Command {
	var (
		assembly  string
		outputDir string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the HGNC table and OncoKB curated isoforms",
		Long: `Download the inputs that are published online: the HGNC complete set,
the OncoKB isoform override table for one assembly and the OncoKB cancer gene
list. The Ensembl BioMart export and the other override tables are not
downloaded.`,
		Example: `  canonical-tx download
  canonical-tx download --assembly GRCh37
  canonical-tx download --output /data/canonical --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToUpper(assembly) {
			case "GRCH37", "GRCH38":
			default:
				return usageError{fmt.Errorf("unsupported assembly %q (want GRCh37 or GRCh38)", assembly)}
			}

			if outputDir == "" {
				outputDir = defaultDataDir(assembly)
				if outputDir == "" {
					return fmt.Errorf("cannot determine home directory")
				}
			}
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", outputDir, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Downloading canonical transcript inputs for %s...\n", assembly)
			fmt.Fprintf(out, "Destination: %s\n\n", outputDir)

			d := &downloader{
				client: &http.Client{Timeout: 30 * time.Minute},
				out:    out,
				force:  force,
			}

			hgncPath := filepath.Join(outputDir, hgncFileName)
			if err := d.downloadFile(cmd.Context(), HGNCCompleteSetURL, hgncPath); err != nil {
				return fmt.Errorf("downloading HGNC: %w", err)
			}

			overridesPath := filepath.Join(outputDir, oncokbOverridesFileName(assembly))
			cancerPath := filepath.Join(outputDir, cancerGenesFileName)
			if err := d.downloadOncoKB(cmd.Context(), oncokb.CuratedGenesURL, assembly, overridesPath, cancerPath); err != nil {
				return fmt.Errorf("downloading OncoKB: %w", err)
			}

			fmt.Fprintf(out, "\nDownload complete!\n")
			fmt.Fprintf(out, "To use these files, run:\n")
			fmt.Fprintf(out, "  canonical-tx config set inputs.hgnc %s\n", hgncPath)
			fmt.Fprintf(out, "  canonical-tx config set inputs.cancer_genes %s\n", cancerPath)
			fmt.Fprintf(out, "and point the oncokb override table at %s\n", overridesPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&assembly, "assembly", "GRCh38", "Genome assembly: GRCh37 or GRCh38")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: ~/.canonical-tx/<assembly>)")
	cmd.Flags().BoolVar(&force, "force", false, "Download again even if files exist")
	return cmd
}

// defaultDataDir returns ~/.canonical-tx/<assembly>.
func defaultDataDir(assembly string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".canonical-tx", strings.ToLower(assembly))
}

type downloader struct {
	client *http.Client
	out    io.Writer
	force  bool
}

// exists reports an existing destination, unless force is set.
func (d *downloader) exists(path string) bool {
	if d.force {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	fmt.Fprintf(d.out, "  %s already exists (%s), skipping\n", filepath.Base(path), formatSize(info.Size()))
	return true
}

// downloadFile downloads a file from URL to the destination path with progress.
func (d *downloader) downloadFile(ctx context.Context, url, destPath string) error {
	if d.exists(destPath) {
		return nil
	}

	fmt.Fprintf(d.out, "  Downloading %s...\n", filepath.Base(destPath))
	logger.Debug("download", zap.String("url", url), zap.String("dest", destPath))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	var downloaded int64
	pw := &progressWriter{
		out:        d.out,
		total:      resp.ContentLength,
		downloaded: &downloaded,
		lastPrint:  time.Now(),
	}
	if err := writeFileAtomic(destPath, func(w io.Writer) error {
		_, err := io.Copy(w, io.TeeReader(resp.Body, pw))
		return err
	}); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Fprintf(d.out, "    Done: %s\n", formatSize(downloaded))
	return nil
}

// downloadOncoKB fetches the curated gene list once and derives both the
// isoform override table and the cancer gene list from it.
func (d *downloader) downloadOncoKB(ctx context.Context, url, assembly, overridesPath, cancerPath string) error {
	if d.exists(overridesPath) && d.exists(cancerPath) {
		return nil
	}

	fmt.Fprintf(d.out, "  Fetching OncoKB curated genes...\n")
	genes, err := oncokb.FetchCuratedGenes(ctx, d.client, url)
	if err != nil {
		return err
	}
	logger.Debug("fetched curated genes", zap.Int("genes", len(genes)))

	var overrides bytes.Buffer
	if err := oncokb.WriteIsoformOverrides(&overrides, genes, assembly); err != nil {
		return err
	}
	if err := writeFileAtomic(overridesPath, func(w io.Writer) error {
		_, err := overrides.WriteTo(w)
		return err
	}); err != nil {
		return err
	}

	if err := writeFileAtomic(cancerPath, func(w io.Writer) error {
		return oncokb.WriteCancerGeneList(w, genes)
	}); err != nil {
		return err
	}

	fmt.Fprintf(d.out, "    Done: %d curated genes\n", len(genes))
	return nil
}

// writeFileAtomic writes to a temporary file next to path and renames it
// into place once fill succeeds.
func writeFileAtomic(path string, fill func(w io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	tmpPath := f.Name()

	err = fill(f)
	if err == nil {
		err = f.Chmod(0644)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

// progressWriter tracks download progress.
type progressWriter struct {
	out        io.Writer
	total      int64
	downloaded *int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	*pw.downloaded += int64(n)

	// Print progress every second
	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(*pw.downloaded) / float64(pw.total) * 100
			fmt.Fprintf(pw.out, "\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(*pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Fprintf(pw.out, "\r    Progress: %s  ", formatSize(*pw.downloaded))
		}
		pw.lastPrint = time.Now()
	}

	return n, nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
