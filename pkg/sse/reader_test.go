package sse

import (
	"bytes"
	"errors"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reader", func() {
	var dst *bytes.Buffer

	BeforeEach(func() {
		dst = &bytes.Buffer{}
	})

	Describe("Next", func() {
		Context("with advisor streams", func() {
			It("parses a single event", func() {
				r := NewTeeReader(strings.NewReader("event: message\ndata: \"你好\"\n\n"), dst)

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Event).To(Equal("message"))
				Expect(f.Data).To(Equal(`"你好"`))

				f, err = r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f).To(BeNil())
			})

			It("parses every frame in order", func() {
				r := NewReader(strings.NewReader(advisorStream))

				var names []string
				for {
					f, err := r.Next()
					Expect(err).NotTo(HaveOccurred())
					if f == nil {
						break
					}
					names = append(names, f.Name())
				}
				Expect(names).To(Equal([]string{"usage", "message", "message", "message", "end"}))
				Expect(r.Residual()).To(BeEmpty())
			})

			It("parses the frame ID", func() {
				r := NewReader(strings.NewReader("id: 42\ndata: \"x\"\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.ID).To(Equal("42"))
			})
		})

		Context("with a source that returns one byte per read", func() {
			It("yields the same frames as a single read", func() {
				whole := feedAll([][]byte{[]byte(advisorStream)})
				r := NewReader(iotest.OneByteReader(strings.NewReader(advisorStream)))

				var got []Frame
				for {
					f, err := r.Next()
					Expect(err).NotTo(HaveOccurred())
					if f == nil {
						break
					}
					got = append(got, *f)
				}
				Expect(got).To(Equal(whole))
			})
		})

		Context("verbatim byte forwarding", func() {
			It("forwards all bytes including delimiters and comments to dst", func() {
				input := ": keep-alive\n\nevent: message\ndata: \"a\"\n\nevent: end\ndata: End of stream\n\n"
				r := NewTeeReader(strings.NewReader(input), dst)

				for {
					f, err := r.Next()
					Expect(err).NotTo(HaveOccurred())
					if f == nil {
						break
					}
				}
				Expect(dst.String()).To(Equal(input))
			})

			It("forwards an unterminated tail to dst", func() {
				input := "event: end\n\ndata: \"tail\""
				r := NewTeeReader(strings.NewReader(input), dst)

				_, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				_, err = r.Next()
				Expect(err).NotTo(HaveOccurred())

				Expect(dst.String()).To(Equal(input))
			})
		})

		Context("edge cases", func() {
			It("returns nil on empty input", func() {
				r := NewTeeReader(strings.NewReader(""), dst)

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f).To(BeNil())
			})

			It("returns nil on input with only blank lines", func() {
				r := NewReader(strings.NewReader("\n\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f).To(BeNil())
			})

			It("does not yield a frame for an unterminated final segment", func() {
				r := NewReader(strings.NewReader("data: \"unterminated\""))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f).To(BeNil())
				Expect(r.Residual()).To(Equal("data: \"unterminated\""))
			})

			It("keeps returning nil after EOF", func() {
				r := NewReader(strings.NewReader("event: end\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f).NotTo(BeNil())

				for range 3 {
					f, err = r.Next()
					Expect(err).NotTo(HaveOccurred())
					Expect(f).To(BeNil())
				}
			})

			It("ignores unknown fields", func() {
				r := NewReader(strings.NewReader("retry: 3000\nfoo: bar\ndata: \"hello\"\n\n"))

				f, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Data).To(Equal(`"hello"`))
			})

			It("returns transport errors", func() {
				boom := errors.New("connection reset")
				r := NewReader(iotest.ErrReader(boom))

				f, err := r.Next()
				Expect(err).To(MatchError(boom))
				Expect(f).To(BeNil())
				Expect(err.Error()).To(Equal("connection reset"))
			})

			It("returns an error raised in the middle of a frame", func() {
				src := iotest.TimeoutReader(iotest.OneByteReader(strings.NewReader("event: end\n\n")))
				r := NewReader(src)

				// The second read times out after one byte was delivered.
				_, err := r.Next()
				Expect(err).To(MatchError(iotest.ErrTimeout))
				Expect(err.Error()).To(ContainSubstring("1 bytes of a partial frame"))
			})
		})
	})
})
