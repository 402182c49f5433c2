package services

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Given a service registry", t, func() {
		registry := NewRegistry()

		Convey("When no services are registered", func() {
			Convey("Lookup misses", func() {
				_, ok := registry.Lookup("chatgpt")
				So(ok, ShouldBeFalse)
			})

			Convey("Keys is empty", func() {
				So(registry.Keys(), ShouldBeEmpty)
			})
		})

		Convey("When services are registered", func() {
			registry.Register(NewChatGPT(DefaultChatGPTConfig()))
			registry.Register(NewPerplexity(DefaultPerplexityConfig()))

			Convey("Lookup resolves each by key", func() {
				adapter, ok := registry.Lookup("chatgpt")
				So(ok, ShouldBeTrue)
				So(adapter.Describe().Name, ShouldEqual, "ChatGPT")

				adapter, ok = registry.Lookup("perplexity")
				So(ok, ShouldBeTrue)
				So(adapter.Describe().Name, ShouldEqual, "Perplexity")
			})

			Convey("Keys preserve registration order", func() {
				So(registry.Keys(), ShouldResemble, []string{"chatgpt", "perplexity"})
			})

			Convey("Descriptors match registration order", func() {
				descriptors := registry.Descriptors()
				So(descriptors, ShouldHaveLength, 2)
				So(descriptors[0].Key, ShouldEqual, "chatgpt")
				So(descriptors[1].URL, ShouldEqual, "https://www.perplexity.ai/")
			})
		})

		Convey("When a key is registered twice", func() {
			registry.Register(NewChatGPT(DefaultChatGPTConfig()))
			registry.Register(NewChatGPT(DefaultChatGPTConfig()))

			Convey("The key appears once", func() {
				So(registry.Keys(), ShouldResemble, []string{"chatgpt"})
			})
		})
	})

	Convey("Given the default registry", t, func() {
		registry := DefaultRegistry()

		Convey("Both production services are wired", func() {
			So(registry.Keys(), ShouldResemble, []string{"chatgpt", "perplexity"})
		})
	})
}
