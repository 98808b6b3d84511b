package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
	})

	It("returns the string unchanged when exactly at the limit", func() {
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("truncates with ellipsis when over the limit", func() {
		result := Truncate("this is a long string", 10)
		Expect(result).To(Equal("this is a ..."))
	})

	It("counts wide characters as two cells", func() {
		Expect(Truncate("高考志愿填报", 4)).To(Equal("高考..."))
		Expect(Truncate("高考", 4)).To(Equal("高考"))
	})
})

var _ = Describe("FirstLine", func() {
	It("skips leading blank lines", func() {
		Expect(FirstLine("\n  \n  我是物理类考生\n第二行")).To(Equal("我是物理类考生"))
	})

	It("returns empty for blank input", func() {
		Expect(FirstLine(" \n\t\n")).To(BeEmpty())
	})
})
