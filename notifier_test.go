package moversapi_test

import (
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	moversapi "github.com/harborline/moversapi"
)

var _ = Describe("FailureNotifier", func() {
	var (
		notifier *moversapi.FailureNotifier
		logger   *slog.Logger
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError, // Quiet during tests
		}))
		notifier = moversapi.NewFailureNotifier(50*time.Millisecond, logger, nil)
	})

	Describe("Show", func() {
		It("publishes the failed endpoints and 503 flag", func() {
			shown := notifier.Show([]string{"/v0/services"}, true, nil)
			Expect(shown).To(BeTrue())

			state := notifier.State()
			Expect(state.Visible).To(BeTrue())
			Expect(state.FailedEndpoints).To(Equal([]string{"/v0/services"}))
			Expect(state.Is503).To(BeTrue())
		})

		It("never shows a second notification while one is visible", func() {
			Expect(notifier.Show([]string{"/v0/services"}, true, nil)).To(BeTrue())
			Expect(notifier.Show([]string{"/v0/nav"}, false, nil)).To(BeFalse())

			state := notifier.State()
			Expect(state.FailedEndpoints).To(Equal([]string{"/v0/services"}))
		})

		It("suppresses re-triggering within the cooldown after hide", func() {
			Expect(notifier.Show([]string{"/v0/services"}, true, nil)).To(BeTrue())
			notifier.Hide()

			// Still inside the cooldown window.
			Expect(notifier.Show([]string{"/v0/nav"}, false, nil)).To(BeFalse())

			time.Sleep(60 * time.Millisecond)
			Expect(notifier.Show([]string{"/v0/nav"}, false, nil)).To(BeTrue())
		})
	})

	Describe("Hide", func() {
		It("clears state and runs the close callback", func() {
			closed := false
			notifier.Show([]string{"/v0/services"}, false, func() { closed = true })
			notifier.Hide()

			Expect(closed).To(BeTrue())
			state := notifier.State()
			Expect(state.Visible).To(BeFalse())
			Expect(state.FailedEndpoints).To(BeEmpty())
		})

		It("is a no-op when nothing is visible", func() {
			Expect(func() { notifier.Hide() }).NotTo(Panic())
		})
	})

	Describe("Listeners", func() {
		It("notifies listeners synchronously on every transition", func() {
			var transitions []moversapi.Notification
			id := notifier.AddListener(func(n moversapi.Notification) {
				transitions = append(transitions, n)
			})
			defer notifier.RemoveListener(id)

			notifier.Show([]string{"/v0/services"}, true, nil)
			notifier.Hide()

			Expect(transitions).To(HaveLen(2))
			Expect(transitions[0].Visible).To(BeTrue())
			Expect(transitions[1].Visible).To(BeFalse())
		})

		It("keeps notifying other listeners when one panics", func() {
			notified := false
			badID := notifier.AddListener(func(moversapi.Notification) {
				panic("listener bug")
			})
			goodID := notifier.AddListener(func(moversapi.Notification) {
				notified = true
			})
			defer notifier.RemoveListener(badID)
			defer notifier.RemoveListener(goodID)

			Expect(func() {
				notifier.Show([]string{"/v0/services"}, false, nil)
			}).NotTo(Panic())
			Expect(notified).To(BeTrue())
		})

		It("stops notifying removed listeners", func() {
			calls := 0
			id := notifier.AddListener(func(moversapi.Notification) { calls++ })
			notifier.RemoveListener(id)

			notifier.Show([]string{"/v0/services"}, false, nil)
			Expect(calls).To(BeZero())
		})
	})
})
