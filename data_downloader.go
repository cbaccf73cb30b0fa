package main

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"attendq/internal/dataset"
)

// DataFiles lists the attendance files NewDB can load, in order of preference.
var DataFiles = []string{wideFileName, logFileName}

// sampleStudents seeds WriteSampleData.
var sampleStudents = []string{
	"Aarav Shah", "Bianca Rossi", "Chen Wei", "Dara Okafor",
	"Elif Yilmaz", "Farah Haddad", "Gabriel Silva", "Hana Sato",
}

// CheckDataFiles returns the first attendance file present in dataDir, or ""
// when there is none. A database built on an earlier run also counts.
func CheckDataFiles(dataDir string) (string, error) {
	if _, err := os.Stat(filepath.Join(dataDir, dbFileName)); err == nil {
		return dbFileName, nil
	}
	for _, name := range DataFiles {
		_, err := os.Stat(filepath.Join(dataDir, name))
		if err == nil {
			return name, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}
	return "", nil
}

// GetFileSize gets the size of a file from URL using HEAD request
func GetFileSize(url string) (int64, error) {
	resp, err := http.Head(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("bad status: %s", resp.Status)
	}

	return resp.ContentLength, nil
}

// PromptUserForData asks whether to fetch the export at dataURL or, when no
// URL is configured, whether to write a sample attendance log.
func PromptUserForData(dataURL string) bool {
	fmt.Println("\n⚠️  No attendance data found.")
	fmt.Printf("   Expected one of: %s\n", strings.Join(DataFiles, ", "))

	if dataURL != "" {
		if size, err := GetFileSize(dataURL); err == nil && size > 0 {
			fmt.Printf("\nAn attendance export is available at %s (%d KB).\n", dataURL, size/1024)
		} else {
			fmt.Printf("\nAn attendance export is available at %s (size unknown).\n", dataURL)
		}
		fmt.Print("\nWould you like to download it now? (y/N): ")
	} else {
		fmt.Println("\nNo export URL is configured (set ATTENDQ_DATA_URL or --data-url).")
		fmt.Print("\nWould you like to write a sample attendance log instead? (y/N): ")
	}

	var response string
	fmt.Scanln(&response)
	response = strings.ToLower(strings.TrimSpace(response))

	return response == "y" || response == "yes"
}

// DownloadFileWithProgress downloads url to dest, printing progress.
func DownloadFileWithProgress(dest string, url string, fileSize int64) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	size := fileSize
	if size == 0 {
		size = resp.ContentLength
	}

	counter := &ProgressCounter{
		Total: size,
		Name:  dest,
	}

	_, err = io.Copy(out, io.TeeReader(resp.Body, counter))
	fmt.Println() // New line after progress

	return err
}

// ProgressCounter counts bytes as they're written and displays progress
type ProgressCounter struct {
	Total   int64
	Current int64
	Name    string
}

func (pc *ProgressCounter) Write(p []byte) (int, error) {
	n := len(p)
	pc.Current += int64(n)

	currentKB := pc.Current / 1024
	if pc.Total > 0 {
		percentage := float64(pc.Current) / float64(pc.Total) * 100
		fmt.Printf("\r   Downloading %s... %.1f%% (%d/%d KB)",
			filepath.Base(pc.Name), percentage, currentKB, pc.Total/1024)
	} else {
		fmt.Printf("\r   Downloading %s... %d KB downloaded",
			filepath.Base(pc.Name), currentKB)
	}

	return n, nil
}

// UnzipFile extracts the first CSV entry of a zip archive into dest and
// returns its path. Other entries are skipped.
func UnzipFile(src, dest string) (string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return "", err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			continue
		}

		fpath := filepath.Join(dest, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return "", err
		}

		outFile, err := os.Create(fpath)
		if err != nil {
			rc.Close()
			return "", err
		}

		_, err = io.Copy(outFile, rc)
		outFile.Close()
		rc.Close()

		if err != nil {
			return "", err
		}

		fmt.Printf("   ✓ Extracted: %s\n", filepath.Base(f.Name))
		return fpath, nil
	}

	return "", fmt.Errorf("no CSV file found in %s", filepath.Base(src))
}

// dataFileName reads the header of the CSV at path and returns the name NewDB
// loads it under: the wide table when any column is a class date, the log
// when there is a date column.
func dataFileName(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return "", fmt.Errorf("failed to read header of %s: %w", filepath.Base(path), err)
	}

	hasDate := false
	for i, col := range header {
		col = strings.TrimSpace(col)
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		if dataset.IsDateColumn(col) {
			return wideFileName, nil
		}
		if strings.EqualFold(col, "date") {
			hasDate = true
		}
	}
	if hasDate {
		return logFileName, nil
	}
	return "", fmt.Errorf("%s is neither an attendance log nor a wide attendance table: header %q",
		filepath.Base(path), strings.Join(header, ","))
}

// DownloadDataFile fetches the attendance export at url into dataDir and
// returns the name it was stored under.
func DownloadDataFile(dataDir, url string) (string, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	tempDir := filepath.Join(dataDir, ".temp")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	fmt.Println("\n📥 Downloading attendance export...")

	base := path.Base(strings.SplitN(url, "?", 2)[0])
	if base == "" || base == "/" || base == "." {
		base = "export.csv"
	}
	fileSize, _ := GetFileSize(url)

	tmpPath := filepath.Join(tempDir, base)
	if err := DownloadFileWithProgress(tmpPath, url, fileSize); err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}

	csvPath := tmpPath
	if strings.HasSuffix(strings.ToLower(base), ".zip") {
		fmt.Printf("   Extracting...\n")
		extractDir := filepath.Join(tempDir, "extracted")
		if err := os.MkdirAll(extractDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create extract directory: %w", err)
		}
		extracted, err := UnzipFile(tmpPath, extractDir)
		if err != nil {
			return "", fmt.Errorf("failed to extract %s: %w", base, err)
		}
		csvPath = extracted
	}

	name, err := dataFileName(csvPath)
	if err != nil {
		return "", err
	}
	if err := os.Rename(csvPath, filepath.Join(dataDir, name)); err != nil {
		return "", fmt.Errorf("failed to move %s: %w", base, err)
	}

	fmt.Printf("✅ Attendance data saved to %s\n\n", filepath.Join(dataDir, name))
	return name, nil
}

// WriteSampleData writes a small attendance log covering the ten weekdays up
// to and including today. The pattern is deterministic.
func WriteSampleData(dataDir string, today time.Time) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	var days []time.Time
	for d := today; len(days) < 10; d = d.AddDate(0, 0, -1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append([]time.Time{d}, days...)
	}

	f, err := os.Create(filepath.Join(dataDir, logFileName))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"roll_number", "name", "date"}); err != nil {
		return err
	}
	for i, name := range sampleStudents {
		roll := i + 1
		for j, d := range days {
			if (roll*7+j*3)%5 == 0 {
				continue
			}
			if err := w.Write([]string{strconv.Itoa(roll), name, d.Format("2006-01-02")}); err != nil {
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	fmt.Printf("✓ Wrote sample attendance for %d students over %d days to %s\n",
		len(sampleStudents), len(days), filepath.Join(dataDir, logFileName))
	return nil
}

// EnsureDataFiles makes sure dataDir has something NewDB can load. When
// interactive it prompts before fetching or writing sample data.
func EnsureDataFiles(dataDir, dataURL string, today time.Time, interactive bool) error {
	found, err := CheckDataFiles(dataDir)
	if err != nil {
		return fmt.Errorf("failed to check data files: %w", err)
	}
	if found != "" {
		return nil
	}

	if !interactive {
		if dataURL != "" {
			_, err := DownloadDataFile(dataDir, dataURL)
			return err
		}
		return fmt.Errorf("no attendance data in %s: run without subcommands to set it up interactively", dataDir)
	}

	if !PromptUserForData(dataURL) {
		if logger != nil {
			logger.Warn("User declined to set up attendance data", "data_dir", dataDir)
		}
		return fmt.Errorf("cannot proceed without attendance data")
	}

	if dataURL != "" {
		_, err := DownloadDataFile(dataDir, dataURL)
		return err
	}
	return WriteSampleData(dataDir, today)
}
