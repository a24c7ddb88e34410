package html

// CSRFCookie must match the cookie set by the station's CSRF middleware.
const CSRFCookie = "X-CSRF-Token"

// CSRFFormScript stamps the CSRF cookie into every POST form as _csrf when
// the form is submitted, so forms rendered after page load are covered too.
func CSRFFormScript() string {
	return `<script>
(function () {
  function token() {
    var prefix = "` + CSRFCookie + `=";
    var parts = document.cookie ? document.cookie.split(";") : [];
    for (var i = 0; i < parts.length; i++) {
      var c = parts[i].trim();
      if (c.indexOf(prefix) === 0) return decodeURIComponent(c.substring(prefix.length));
    }
    return "";
  }

  document.addEventListener("submit", function (ev) {
    var form = ev.target;
    if (!form || (form.getAttribute("method") || "GET").toUpperCase() !== "POST") return;
    var value = token();
    if (!value) return;
    var input = form.querySelector("input[name='_csrf']");
    if (!input) {
      input = document.createElement("input");
      input.type = "hidden";
      input.name = "_csrf";
      form.appendChild(input);
    }
    input.value = value;
  }, true);
})();
</script>`
}
