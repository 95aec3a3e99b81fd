package loader_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32emu/loader"
)

var _ = Describe("Raw Loader", func() {
	var tempDir string

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
	})

	write := func(name string, data []byte) string {
		path := filepath.Join(tempDir, name)
		Expect(os.WriteFile(path, data, 0o644)).To(Succeed())
		return path
	}

	Describe("Load", func() {
		It("should return the file contents", func() {
			data := []byte{0x93, 0x00, 0x50, 0x00, 0x13, 0x01, 0x31, 0x00}
			path := write("prog.bin", data)

			Expect(loader.Load(path)).To(Equal(data))
		})

		It("should reject a missing file", func() {
			_, err := loader.Load(filepath.Join(tempDir, "missing.bin"))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})

		It("should reject an empty file", func() {
			_, err := loader.Load(write("empty.bin", nil))
			Expect(err).To(MatchError(loader.ErrEmptyImage))
		})

		It("should reject a partial word", func() {
			_, err := loader.Load(write("odd.bin", []byte{1, 2, 3, 4, 5}))
			Expect(err).To(MatchError(loader.ErrImageLength))
			Expect(err.Error()).To(ContainSubstring("odd.bin"))
		})
	})

	Describe("Read", func() {
		It("should read from any reader", func() {
			Expect(loader.Read(strings.NewReader("abcd"))).To(Equal([]byte("abcd")))
		})

		It("should validate the length", func() {
			_, err := loader.Read(strings.NewReader("abc"))
			Expect(err).To(MatchError(loader.ErrImageLength))
		})
	})

	Describe("Open", func() {
		It("should treat files without ELF magic as raw images", func() {
			data := []byte{1, 0, 0, 0, 2, 0, 0, 0}
			image, err := loader.Open(write("prog.bin", data))

			Expect(err).NotTo(HaveOccurred())
			Expect(image.Data).To(Equal(data))
			Expect(image.Entry).To(Equal(uint32(0)))
			Expect(image.Base).To(Equal(uint32(0)))
		})

		It("should reject short raw files", func() {
			_, err := loader.Open(write("short.bin", []byte{1, 2}))
			Expect(err).To(MatchError(loader.ErrImageLength))
		})
	})

	Describe("HexDump", func() {
		It("should print 16 bytes per line", func() {
			data := make([]byte, 20)
			for i := range data {
				data[i] = byte(i)
			}

			var buf bytes.Buffer
			Expect(loader.HexDump(&buf, data)).To(Succeed())

			Expect(buf.String()).To(Equal(
				"00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f \n" +
					"10 11 12 13 \n"))
		})

		It("should not add a blank line after a full line", func() {
			var buf bytes.Buffer
			Expect(loader.HexDump(&buf, make([]byte, 16))).To(Succeed())

			Expect(strings.Count(buf.String(), "\n")).To(Equal(1))
		})

		It("should print nothing for no data", func() {
			var buf bytes.Buffer
			Expect(loader.HexDump(&buf, nil)).To(Succeed())
			Expect(buf.Len()).To(Equal(0))
		})
	})
})
